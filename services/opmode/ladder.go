package opmode

import "time"

// Ladder is the hold-to-repeat step size. It starts at the first step and
// moves one rung up every dwell while the button stays down.
type Ladder struct {
	steps  []uint16
	dwell  time.Duration
	idx    int
	anchor time.Time
}

func NewLadder(steps []uint16, dwell time.Duration) *Ladder {
	if len(steps) == 0 {
		steps = []uint16{1}
	}
	return &Ladder{steps: steps, dwell: dwell}
}

// Reset returns to the first rung, anchored at now.
func (l *Ladder) Reset(now time.Time) {
	l.idx = 0
	l.anchor = now
}

// Advance is called once per repeat tick and returns the step to apply.
func (l *Ladder) Advance(now time.Time) uint16 {
	if l.dwell > 0 && l.idx+1 < len(l.steps) && now.Sub(l.anchor) >= l.dwell {
		l.idx++
		l.anchor = now
	}
	return l.steps[l.idx]
}

// Step is the current step without advancing.
func (l *Ladder) Step() uint16 { return l.steps[l.idx] }
