package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"deskctl-go/calibration"
	"deskctl-go/services/buttons"
	"deskctl-go/services/config"
	"deskctl-go/services/sensing"
	"deskctl-go/services/storage"
	"deskctl-go/sim"
	"deskctl-go/types"
	"deskctl-go/x/logx"
)

func fastProfile() config.Profile {
	p := config.Default()
	p.Input = config.InputConfig{SettleMS: 10, PollMS: 1}
	p.Buttons.PeriodMS = 1
	p.Buttons.StableSamples = 2
	p.Drive.PeriodMS = 1
	p.Sensing = sensing.Config{PeriodMS: 1, Samples: 1}
	p.Opmode.HeightTickMS = 1
	p.Opmode.RefreshMS = 20
	p.Opmode.FirstMeasurementMS = 500
	p.Heartbeat.Interval = 0.05
	return p
}

type rig struct {
	app    *App
	column *sim.Column
	keypad *sim.Keypad
	mem    *storage.Memory
}

func newRig(t *testing.T, inner storage.InnerConfiguration) *rig {
	t.Helper()
	logx.SetSink(func(string) {})
	t.Cleanup(func() { logx.SetSink(nil) })

	mem := storage.NewMemory(256)
	if _, err := mem.WriteAt(storage.Encode(inner), 0); err != nil {
		t.Fatal(err)
	}
	col := sim.NewColumn(sim.ColumnConfig{Start: 100, Speed: 400})
	kp := &sim.Keypad{}
	pins := map[types.Button]buttons.Pin{}
	for b, p := range kp.Pins() {
		pins[b] = p
	}
	a := New("sim", fastProfile(), Hardware{
		Source:  col,
		Pins:    pins,
		Up:      col.UpLine(),
		Down:    col.DownLine(),
		Storage: mem,
	})
	return &rig{app: a, column: col, keypad: kp, mem: mem}
}

func (r *rig) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.app.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("Run() = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after cancel")
		}
	})
}

func eventually(t *testing.T, d time.Duration, what string, f func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !f() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (r *rig) tap(b types.Button) {
	r.keypad.Set(b, true)
	time.Sleep(40 * time.Millisecond)
	r.keypad.Set(b, false)
}

func calibrated(t *testing.T) calibration.Table {
	t.Helper()
	tbl, err := calibration.FromPoints(sim.ReferenceCurve...)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestDriveToSavedPosition(t *testing.T) {
	r := newRig(t, storage.InnerConfiguration{
		Position1:   storage.Position(300),
		Calibration: calibrated(t),
	})
	r.run(t)

	eventually(t, time.Second, "calibrated height", func() bool { return r.app.Sensor.Height().Calibrated })
	// Let the start screen settle before the first press.
	time.Sleep(30 * time.Millisecond)
	r.tap(types.ButtonPos1)

	eventually(t, 3*time.Second, "target reached", func() bool {
		up, down := r.column.Lines()
		return !up && !down && r.column.Position() > 250
	})
	if pos := r.column.Position(); pos < 280 || pos > 320 {
		t.Fatalf("stopped at %.1fmm, want about 300", pos)
	}
	if d := r.app.Direction.Get(); d != types.Stopped {
		t.Fatalf("direction = %v, want stopped", d)
	}
}

func TestJogAndSavePositionPersists(t *testing.T) {
	r := newRig(t, storage.InnerConfiguration{Calibration: calibrated(t)})
	r.run(t)
	eventually(t, time.Second, "calibrated height", func() bool { return r.app.Sensor.Height().Calibrated })
	time.Sleep(30 * time.Millisecond)

	// Jog up while held.
	r.keypad.Set(types.ButtonUp, true)
	eventually(t, time.Second, "column moving up", func() bool { return r.column.Position() > 150 })
	r.keypad.Set(types.ButtonUp, false)
	eventually(t, time.Second, "motor stopped", func() bool {
		up, down := r.column.Lines()
		return !up && !down
	})

	// Chord opens options; Pos2 stores position 1.
	r.keypad.Set(types.ButtonUpAndDown, true)
	eventually(t, time.Second, "options", func() bool { return r.app.Machine.Mode().String() == "options" })
	r.keypad.Set(types.ButtonUpAndDown, false)
	time.Sleep(30 * time.Millisecond)
	r.tap(types.ButtonPos2)

	eventually(t, time.Second, "position stored", func() bool {
		c, err := storage.Decode(r.mem.Bytes()[:storage.RecordSize])
		if err != nil {
			return false
		}
		mm, ok := c.Position1.Get()
		return ok && mm > 140
	})
}
