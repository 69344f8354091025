// Package opmode is the top-level menu and drive sequencer: start screen,
// options, calibration and reset drive.
package opmode

import (
	"context"
	"sync/atomic"
	"time"

	"deskctl-go/bus"
	"deskctl-go/calibration"
	"deskctl-go/services/input"
	"deskctl-go/services/storage"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

// Mode is the active top-level state.
type Mode uint32

const (
	ModeStart Mode = iota
	ModeOptions
	ModeCalibration
	ModeAddPoint
	ModeResetDrive
)

func (m Mode) String() string {
	switch m {
	case ModeOptions:
		return "options"
	case ModeCalibration:
		return "calibration"
	case ModeAddPoint:
		return "add_point"
	case ModeResetDrive:
		return "reset_drive"
	default:
		return "start"
	}
}

// Sensor exposes the latest measurement.
type Sensor interface {
	Height() types.Height
	Raw() uint16
}

// Director requests motor directions and reads the acknowledged one.
type Director interface {
	Request(d types.Direction)
	Get() types.Direction
}

// Screens receives the screen to show. Only the latest one matters.
type Screens interface {
	Show(s types.Screen)
}

type Config struct {
	RefreshMS          int      `json:"refresh_ms"`
	HeightTickMS       int      `json:"height_tick_ms"`
	StandstillMM       uint16   `json:"standstill_mm"`
	MovementMM         uint16   `json:"movement_mm"`
	LadderSteps        []uint16 `json:"ladder_steps"`
	LadderDwellMS      int      `json:"ladder_dwell_ms"`
	HoldRepeatMS       int      `json:"hold_repeat_ms"`
	FirstMeasurementMS int      `json:"first_measurement_ms"`
}

func DefaultConfig() Config {
	return Config{
		RefreshMS:          100,
		HeightTickMS:       10,
		StandstillMM:       uint16(types.StandstillTolerance),
		MovementMM:         uint16(types.MovementTolerance),
		LadderSteps:        []uint16{1, 10, 50, 100},
		LadderDwellMS:      2000,
		HoldRepeatMS:       100,
		FirstMeasurementMS: 2000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RefreshMS <= 0 {
		c.RefreshMS = d.RefreshMS
	}
	if c.HeightTickMS <= 0 {
		c.HeightTickMS = d.HeightTickMS
	}
	if c.StandstillMM == 0 {
		c.StandstillMM = d.StandstillMM
	}
	if c.MovementMM == 0 {
		c.MovementMM = d.MovementMM
	}
	if len(c.LadderSteps) == 0 {
		c.LadderSteps = d.LadderSteps
	}
	if c.LadderDwellMS <= 0 {
		c.LadderDwellMS = d.LadderDwellMS
	}
	if c.HoldRepeatMS <= 0 {
		c.HoldRepeatMS = d.HoldRepeatMS
	}
	switch {
	case c.FirstMeasurementMS == 0:
		c.FirstMeasurementMS = d.FirstMeasurementMS
	case c.FirstMeasurementMS < 0:
		// Negative: start without waiting.
		c.FirstMeasurementMS = 0
	}
	return c
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

type Deps struct {
	Input     *input.Tracker
	Direction Director
	Store     *storage.Store
	Sensor    Sensor
	Screens   Screens
	// Conn, when set, receives calibration updates on types.TopicCalibration.
	Conn *bus.Connection
}

// Machine runs the menus. It owns one input watcher and is driven by a
// single goroutine through Run.
type Machine struct {
	d   Deps
	cfg Config

	refresh    time.Duration
	heightTick time.Duration
	standstill types.Millimeters
	movement   types.Millimeters

	w    *input.Watcher
	mode atomic.Uint32
	log  logx.Logger

	// needRelease makes the start screen wait for all buttons up before
	// accepting a new press.
	needRelease bool
}

func New(d Deps, cfg Config) *Machine {
	cfg = cfg.withDefaults()
	return &Machine{
		d:          d,
		cfg:        cfg,
		refresh:    ms(cfg.RefreshMS),
		heightTick: ms(cfg.HeightTickMS),
		standstill: types.Millimeters(cfg.StandstillMM),
		movement:   types.Millimeters(cfg.MovementMM),
		w:          d.Input.Watch(),
		log:        logx.New("opmode"),
	}
}

// Mode returns the active state; safe from any goroutine.
func (m *Machine) Mode() Mode { return Mode(m.mode.Load()) }

func (m *Machine) setMode(md Mode) {
	if Mode(m.mode.Swap(uint32(md))) != md {
		m.log.Infof("mode %v", md)
	}
}

// Run loops through the modes until ctx ends. It always starts on the
// start screen.
func (m *Machine) Run(ctx context.Context) error {
	m.broadcast(m.d.Store.Get().Calibration)
	if err := m.waitFirstMeasurement(ctx); err != nil {
		return err
	}
	m.needRelease = true

	next := ModeStart
	for {
		m.setMode(next)
		var err error
		switch next {
		case ModeStart:
			next, err = m.start(ctx)
		case ModeOptions:
			next, err = m.options(ctx)
		case ModeCalibration:
			next, err = m.calibration(ctx)
		case ModeAddPoint:
			next, err = m.addPoint(ctx)
		case ModeResetDrive:
			next, err = m.resetDrive(ctx)
		default:
			next = ModeStart
		}
		if err != nil {
			m.d.Direction.Request(types.Stopped)
			return err
		}
	}
}

// waitFirstMeasurement gives the sensing task a moment to produce a
// height before the first frame.
func (m *Machine) waitFirstMeasurement(ctx context.Context) error {
	deadline := time.Now().Add(ms(m.cfg.FirstMeasurementMS))
	for m.d.Sensor.Height().MM.IsZero() {
		if time.Now().After(deadline) {
			m.log.Warnf("no height measured yet")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.heightTick):
		}
	}
	return nil
}

func (m *Machine) broadcast(t calibration.Table) {
	if m.d.Conn == nil {
		return
	}
	m.d.Conn.Publish(m.d.Conn.NewMessage(types.TopicCalibration, t, true))
}

func (m *Machine) show(s types.Screen) { m.d.Screens.Show(s) }
