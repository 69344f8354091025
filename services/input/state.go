package input

import "deskctl-go/types"

// ButtonState is a wrapping change counter. Every transition advances it by
// one, so an odd value means pressed.
type ButtonState uint8

func (s ButtonState) Pressed() bool { return s&1 == 1 }

type ChangeKind uint8

const (
	StillReleased ChangeKind = iota
	StillPressed
	Pressed
	Released
)

func (k ChangeKind) String() string {
	switch k {
	case StillPressed:
		return "still_pressed"
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return "still_released"
	}
}

// StateChange compares two snapshots of one button. Missed is set when more
// than one transition happened in between.
type StateChange struct {
	Kind   ChangeKind
	Missed bool
}

// ChangedSince compares s against an older snapshot. The counter difference
// is taken modulo 256, so wrap-around is harmless.
func (s ButtonState) ChangedSince(old ButtonState) StateChange {
	diff := uint8(s - old)
	switch {
	case diff == 0 && s.Pressed():
		return StateChange{Kind: StillPressed}
	case diff == 0:
		return StateChange{Kind: StillReleased}
	case s.Pressed():
		return StateChange{Kind: Pressed, Missed: diff > 1}
	default:
		return StateChange{Kind: Released, Missed: diff > 1}
	}
}

// Inputs is the whole keypad at one instant, indexed like types.Buttons.
type Inputs [len(types.Buttons)]ButtonState

func (in Inputs) State(b types.Button) ButtonState {
	i := b.Index()
	if i < 0 {
		return 0
	}
	return in[i]
}

// Held is the set of buttons currently pressed.
func (in Inputs) Held() types.Button {
	var out types.Button
	for i, b := range types.Buttons {
		if in[i].Pressed() {
			out |= b
		}
	}
	return out
}

// press advances b's counter if it is released. It reports whether the
// state changed.
func (in *Inputs) press(b types.Button) bool {
	i := b.Index()
	if i < 0 || in[i].Pressed() {
		return false
	}
	in[i]++
	return true
}

func (in *Inputs) release(b types.Button) bool {
	i := b.Index()
	if i < 0 || !in[i].Pressed() {
		return false
	}
	in[i]++
	return true
}

// ChangedSince compares every button against an older snapshot.
func (in Inputs) ChangedSince(old Inputs) StateChanges {
	var out StateChanges
	for i := range in {
		out[i] = in[i].ChangedSince(old[i])
	}
	return out
}

// StateChanges holds one StateChange per button.
type StateChanges [len(types.Buttons)]StateChange

func (c StateChanges) Of(b types.Button) StateChange {
	i := b.Index()
	if i < 0 {
		return StateChange{}
	}
	return c[i]
}

// Pressed is the set of buttons that are down now, freshly or still.
func (c StateChanges) Pressed() types.Button {
	var out types.Button
	for i, b := range types.Buttons {
		if k := c[i].Kind; k == Pressed || k == StillPressed {
			out |= b
		}
	}
	return out
}

// Released is the set of buttons that are up now, freshly or still.
func (c StateChanges) Released() types.Button {
	var out types.Button
	for i, b := range types.Buttons {
		if k := c[i].Kind; k == Released || k == StillReleased {
			out |= b
		}
	}
	return out
}

// IsReleased reports whether b is Released or StillReleased.
func (c StateChanges) IsReleased(b types.Button) bool {
	return c.Released().Has(b)
}

// Missed reports whether any button lost an edge.
func (c StateChanges) Missed() bool {
	for _, s := range c {
		if s.Missed {
			return true
		}
	}
	return false
}

// PressedExclusive returns the one button that freshly went down. It
// reports false when nothing or more than one button was pressed, when
// another button is still held, or when any edge was missed.
func (c StateChanges) PressedExclusive() (types.Button, bool) {
	if c.Missed() {
		return types.ButtonNone, false
	}
	var fresh types.Button
	for i, b := range types.Buttons {
		switch c[i].Kind {
		case Pressed:
			if fresh != 0 {
				return types.ButtonNone, false
			}
			fresh = b
		case StillPressed:
			return types.ButtonNone, false
		}
	}
	return fresh, fresh != 0
}
