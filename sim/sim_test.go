package sim

import (
	"testing"
	"time"

	"deskctl-go/calibration"
	"deskctl-go/types"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time      { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }

func newTestColumn(cfg ColumnConfig) (*Column, *clock) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewColumn(cfg)
	c.now = clk.now
	c.last = clk.t
	return c, clk
}

func TestColumnMovesWithLines(t *testing.T) {
	c, clk := newTestColumn(ColumnConfig{Start: 100, Speed: 40})
	c.UpLine().Set(true)
	clk.add(time.Second)
	if got := c.Position(); got != 140 {
		t.Fatalf("after 1s up: %v, want 140", got)
	}
	c.UpLine().Set(false)
	c.DownLine().Set(true)
	clk.add(500 * time.Millisecond)
	if got := c.Position(); got != 120 {
		t.Fatalf("after 0.5s down: %v, want 120", got)
	}
	clk.add(time.Hour)
	if got := c.Position(); got != 0 {
		t.Fatalf("column should stop at 0, got %v", got)
	}
}

func TestColumnResetRetracts(t *testing.T) {
	c, clk := newTestColumn(ColumnConfig{Start: 50, ResetSpeed: 10})
	c.UpLine().Set(true)
	c.DownLine().Set(true)
	clk.add(2 * time.Second)
	if got := c.Position(); got != 30 {
		t.Fatalf("reset drive: %v, want 30", got)
	}
}

func TestSampleFollowsReferenceCurve(t *testing.T) {
	c, _ := newTestColumn(ColumnConfig{Start: 172})
	raw, err := c.Sample()
	if err != nil || raw != 1432 {
		t.Fatalf("Sample() = %d, %v; want 1432", raw, err)
	}

	tbl, err := calibration.FromPoints(ReferenceCurve...)
	if err != nil {
		t.Fatal(err)
	}
	c.SetPosition(300)
	raw, _ = c.Sample()
	got := tbl.Transform(raw)
	if got < 299 || got > 301 {
		t.Fatalf("round trip at 300mm = %v", got)
	}
}

func TestKeypadPins(t *testing.T) {
	var k Keypad
	pins := k.Pins()
	k.Set(types.ButtonUp|types.ButtonPos2, true)
	if !pins[types.ButtonUp].Get() || !pins[types.ButtonPos2].Get() || pins[types.ButtonDown].Get() {
		t.Fatalf("held = %v", k.Held())
	}
	k.Set(types.ButtonUp, false)
	if pins[types.ButtonUp].Get() || k.Held() != types.ButtonPos2 {
		t.Fatalf("held = %v", k.Held())
	}
}
