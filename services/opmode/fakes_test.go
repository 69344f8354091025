package opmode

import (
	"errors"
	"sync"
	"testing"
	"time"

	"deskctl-go/bus"
	"deskctl-go/services/input"
	"deskctl-go/services/storage"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

var errWrite = errors.New("flash busy")

type fakeSensor struct {
	mu  sync.Mutex
	h   types.Height
	raw uint16
}

func (s *fakeSensor) Height() types.Height {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h
}

func (s *fakeSensor) Raw() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

func (s *fakeSensor) set(mm types.Millimeters, raw uint16) {
	s.mu.Lock()
	s.h = types.Height{MM: mm, Calibrated: true}
	s.raw = raw
	s.mu.Unlock()
}

func (s *fakeSensor) move(d int) {
	s.mu.Lock()
	if d > 0 {
		s.h.MM = s.h.MM.Add(types.Millimeters(d))
	} else {
		s.h.MM = s.h.MM.Sub(types.Millimeters(-d))
	}
	s.mu.Unlock()
}

type request struct {
	dir    types.Direction
	height types.Millimeters
}

// recorder acknowledges every request at once and remembers the height at
// which it was made.
type recorder struct {
	mu     sync.Mutex
	sensor *fakeSensor
	cur    types.Direction
	reqs   []request
}

func (r *recorder) Request(d types.Direction) {
	h := r.sensor.Height().MM
	r.mu.Lock()
	r.cur = d
	r.reqs = append(r.reqs, request{d, h})
	r.mu.Unlock()
}

func (r *recorder) Get() types.Direction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

func (r *recorder) requests() []request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]request(nil), r.reqs...)
}

type screens struct {
	mu   sync.Mutex
	last types.Screen
	all  []types.Screen
}

func (s *screens) Show(sc types.Screen) {
	s.mu.Lock()
	s.last = sc
	s.all = append(s.all, sc)
	s.mu.Unlock()
}

func (s *screens) latest() types.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *screens) history() []types.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Screen(nil), s.all...)
}

type rig struct {
	m       *Machine
	sampler *input.Sampler
	sensor  *fakeSensor
	dir     *recorder
	screens *screens
	store   *storage.Store
	mem     *storage.Memory
	bus     *bus.Bus
}

func testConfig() Config {
	return Config{
		RefreshMS:          5,
		HeightTickMS:       1,
		HoldRepeatMS:       200,
		LadderDwellMS:      2000,
		FirstMeasurementMS: 20,
	}
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	logx.SetSink(func(string) {})
	t.Cleanup(func() { logx.SetSink(nil) })

	sampler, tracker := input.New(input.Options{Settle: 10 * time.Millisecond, Poll: time.Millisecond})
	sensor := &fakeSensor{}
	rec := &recorder{sensor: sensor}
	scr := &screens{}
	mem := storage.NewMemory(256)
	store := storage.New(mem, storage.Options{})
	b := bus.NewBus(8)

	m := New(Deps{
		Input:     tracker,
		Direction: rec,
		Store:     store,
		Sensor:    sensor,
		Screens:   scr,
		Conn:      b.NewConnection("opmode"),
	}, cfg)
	return &rig{m: m, sampler: sampler, sensor: sensor, dir: rec, screens: scr, store: store, mem: mem, bus: b}
}

// tap presses the buttons in set together, holds them past the settle
// delay and releases them.
func (r *rig) tap(set types.Button) {
	for _, b := range types.Buttons {
		if set.Has(b) {
			r.sampler.Press(b)
		}
	}
	time.Sleep(40 * time.Millisecond)
	for _, b := range types.Buttons {
		if set.Has(b) {
			r.sampler.Release(b)
		}
	}
	time.Sleep(20 * time.Millisecond)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
