package sim

import (
	"math/rand/v2"
	"sync"
	"time"

	"deskctl-go/calibration"
	"deskctl-go/types"
)

// ReferenceCurve is a measured ADC to stroke curve of a real column.
var ReferenceCurve = []calibration.Point{
	{Raw: 952, Length: 86},
	{Raw: 1432, Length: 172},
	{Raw: 1893, Length: 258},
	{Raw: 2204, Length: 316},
	{Raw: 2572, Length: 386},
}

type ColumnConfig struct {
	// Stroke is the travel in millimetres; the column moves in [0, Stroke].
	Stroke float64
	// Speed in mm/s while driving up or down.
	Speed float64
	// ResetSpeed in mm/s while both lines are high; the column retracts.
	ResetSpeed float64
	// Noise is the peak ADC jitter added to each sample.
	Noise int
	// Start is the initial extension in mm.
	Start float64
}

func (c ColumnConfig) withDefaults() ColumnConfig {
	if c.Stroke <= 0 {
		c.Stroke = 450
	}
	if c.Speed <= 0 {
		c.Speed = 35
	}
	if c.ResetSpeed <= 0 {
		c.ResetSpeed = 10
	}
	return c
}

// Column simulates a lifting column: two motor lines move the extension,
// a sensor reports it as an ADC reading. Time advances lazily on every
// access.
type Column struct {
	mu       sync.Mutex
	cfg      ColumnConfig
	pos      float64
	up, down bool
	last     time.Time
	inverse  calibration.Table

	now func() time.Time
	rng *rand.Rand
}

func NewColumn(cfg ColumnConfig) *Column {
	cfg = cfg.withDefaults()
	// Swapping the axes of the reference curve turns Transform into
	// length -> ADC.
	var inv calibration.Table
	for _, p := range ReferenceCurve {
		_ = inv.Insert(p.Length.AsMM(), types.Millimeters(p.Raw))
	}
	c := &Column{
		cfg:     cfg,
		pos:     cfg.Start,
		inverse: inv,
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(1, 2)),
	}
	c.last = c.now()
	return c
}

// advance integrates motion up to now. Callers hold mu.
func (c *Column) advance() {
	t := c.now()
	dt := t.Sub(c.last).Seconds()
	c.last = t
	switch {
	case c.up && c.down:
		c.pos -= c.cfg.ResetSpeed * dt
	case c.up:
		c.pos += c.cfg.Speed * dt
	case c.down:
		c.pos -= c.cfg.Speed * dt
	}
	c.pos = min(max(c.pos, 0), c.cfg.Stroke)
}

func (c *Column) setLine(up, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance()
	if up {
		c.up = v
	} else {
		c.down = v
	}
}

// Position returns the true extension in mm.
func (c *Column) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance()
	return c.pos
}

// SetPosition moves the column instantly.
func (c *Column) SetPosition(mm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance()
	c.pos = min(max(mm, 0), c.cfg.Stroke)
}

// Lines reports the current motor line levels.
func (c *Column) Lines() (up, down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up, c.down
}

// Sample returns the ADC reading for the current extension.
func (c *Column) Sample() (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance()
	raw := int(c.inverse.Transform(uint16(c.pos + 0.5)))
	if c.cfg.Noise > 0 {
		raw += c.rng.IntN(2*c.cfg.Noise+1) - c.cfg.Noise
	}
	return uint16(min(max(raw, 0), 4095)), nil
}

// MotorLine is one motor control output.
type MotorLine struct {
	c  *Column
	up bool
}

func (l MotorLine) Set(v bool) { l.c.setLine(l.up, v) }

func (c *Column) UpLine() MotorLine   { return MotorLine{c: c, up: true} }
func (c *Column) DownLine() MotorLine { return MotorLine{c: c, up: false} }
