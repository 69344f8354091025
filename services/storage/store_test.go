package storage

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"deskctl-go/errcode"
	"deskctl-go/sim"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

const region = 256

func quiet(t *testing.T) {
	t.Helper()
	logx.SetSink(func(string) {})
	t.Cleanup(func() { logx.SetSink(nil) })
}

func TestFirstBootUsesDefaults(t *testing.T) {
	quiet(t)
	s := New(NewMemory(region), Options{})
	if s.Status() != NotLoaded {
		t.Fatalf("Status() = %v before first use", s.Status())
	}
	if got := s.Get(); got != (InnerConfiguration{}) {
		t.Fatalf("Get() = %+v, want defaults", got)
	}
	if s.Status() != Absent {
		t.Fatalf("Status() = %v, want absent", s.Status())
	}
}

func TestUpdatePersistsAcrossInstances(t *testing.T) {
	quiet(t)
	mem := NewMemory(region)
	s := New(mem, Options{Offset: 16})

	var insertErr error
	got, err := s.Update(func(c *InnerConfiguration) {
		c.Position1 = Position(400)
		insertErr = c.Calibration.Insert(952, 86)
	})
	if err != nil || insertErr != nil {
		t.Fatalf("Update: %v / %v", err, insertErr)
	}
	if p, ok := got.Position1.Get(); !ok || p != 400 {
		t.Fatalf("returned config has position %v,%v", p, ok)
	}

	again := New(mem, Options{Offset: 16})
	if again.Get() != got {
		t.Fatalf("reloaded %+v, want %+v", again.Get(), got)
	}
	if again.Status() != Loaded {
		t.Fatalf("Status() = %v, want loaded", again.Status())
	}
}

func TestCorruptedMagicFallsBackToDefaults(t *testing.T) {
	quiet(t)
	mem := NewMemory(region)
	if _, err := New(mem, Options{}).Update(func(c *InnerConfiguration) { c.Position2 = Position(900) }); err != nil {
		t.Fatal(err)
	}
	mem.Poke(0, 0)

	s := New(mem, Options{})
	if got := s.Get(); got != (InnerConfiguration{}) {
		t.Fatalf("Get() = %+v, want defaults", got)
	}
	if s.Status() != Absent {
		t.Fatalf("Status() = %v, want absent", s.Status())
	}
}

func TestBadChecksumIsCorrupt(t *testing.T) {
	quiet(t)
	mem := NewMemory(region)
	if _, err := New(mem, Options{}).Update(func(c *InnerConfiguration) { c.Position1 = Position(333) }); err != nil {
		t.Fatal(err)
	}
	mem.Poke(headerSize+1, mem.Bytes()[headerSize+1]^0x01)

	s := New(mem, Options{})
	if got := s.Get(); got != (InnerConfiguration{}) {
		t.Fatalf("Get() = %+v, want defaults", got)
	}
	if s.Status() != Corrupt {
		t.Fatalf("Status() = %v, want corrupt", s.Status())
	}
}

func TestWriteFailureKeepsChange(t *testing.T) {
	quiet(t)
	mem := NewMemory(region)
	mem.WriteErr = io.ErrShortWrite
	s := New(mem, Options{})

	got, err := s.Update(func(c *InnerConfiguration) { c.Position1 = Position(700) })
	if !errors.Is(err, errcode.StorageWrite) || !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("Update error = %v", err)
	}
	if p, _ := got.Position1.Get(); p != 700 {
		t.Fatal("in-memory change rolled back")
	}
	if !s.Unsaved() {
		t.Fatal("Unsaved() = false after failed write")
	}

	mem.WriteErr = nil
	if _, err := s.Update(func(*InnerConfiguration) {}); err != nil {
		t.Fatal(err)
	}
	if s.Unsaved() {
		t.Fatal("Unsaved() still set after successful write")
	}
}

func TestReadFailureUsesDefaultsOnce(t *testing.T) {
	quiet(t)
	mem := NewMemory(region)
	mem.ReadErr = errors.New("nak")
	s := New(mem, Options{})
	_ = s.Get()
	if s.Status() != ReadFailed {
		t.Fatalf("Status() = %v, want read_failed", s.Status())
	}
	// Loading happens once; a later successful read does not replace the
	// in-memory record.
	mem.ReadErr = nil
	_ = s.Get()
	if s.Status() != ReadFailed {
		t.Fatal("store reloaded after first use")
	}
}

func TestConcurrentUpdatesDoNotInterleave(t *testing.T) {
	quiet(t)
	s := New(NewMemory(region), Options{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = s.Update(func(c *InnerConfiguration) {
					h, _ := c.Position1.Get()
					c.Position1 = Position(h + 1)
				})
			}
		}(i)
	}
	wg.Wait()
	if p, _ := s.Get().Position1.Get(); p != 80 {
		t.Fatalf("position = %v, want 80", p)
	}
}

func TestFileDevice(t *testing.T) {
	quiet(t)
	path := filepath.Join(t.TempDir(), "desk.eeprom")
	f, err := OpenFile(path, region)
	if err != nil {
		t.Fatal(err)
	}
	s := New(f, Options{})
	if s.Get() != (InnerConfiguration{}) || s.Status() != Absent {
		t.Fatalf("fresh file: %v", s.Status())
	}
	if _, err := s.Update(func(c *InnerConfiguration) { c.Position2 = Position(1234) }); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = OpenFile(path, region)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if p, ok := New(f, Options{}).Get().Position2.Get(); !ok || p != 1234 {
		t.Fatalf("reloaded position2 = %v,%v", p, ok)
	}
}

func TestEEPROMBackend(t *testing.T) {
	quiet(t)
	bus := sim.NewI2CEEPROM(0x57, 4096)
	ee := NewEEPROM(bus, EEPROMConfig{})
	s := New(ee, Options{Offset: 64})

	want, err := s.Update(func(c *InnerConfiguration) {
		c.Position1 = Position(types.MM(650))
		for i := uint16(0); i < 20; i++ {
			_ = c.Calibration.Insert(900+i*100, types.Millimeters(80+i*20))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	got := New(NewEEPROM(bus, EEPROMConfig{}), Options{Offset: 64}).Get()
	if got != want {
		t.Fatalf("EEPROM round trip mismatch\n got %+v\nwant %+v", got, want)
	}
}
