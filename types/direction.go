package types

// ---- Drive direction ----

type Direction uint8

const (
	Stopped Direction = iota
	Up
	Down
	// ResetDrive drives both motor lines; the column controller re-homes.
	ResetDrive
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case ResetDrive:
		return "reset"
	default:
		return "stopped"
	}
}

// Glyph is the one-character indicator shown next to the height.
func (d Direction) Glyph() string {
	switch d {
	case Up:
		return "▲"
	case Down:
		return "▼"
	case ResetDrive:
		return "⟳"
	default:
		return "■"
	}
}

// ParseDirection accepts the names returned by String.
func ParseDirection(s string) (Direction, bool) {
	for _, d := range []Direction{Stopped, Up, Down, ResetDrive} {
		if d.String() == s {
			return d, true
		}
	}
	return Stopped, false
}
