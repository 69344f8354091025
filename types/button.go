package types

import "strings"

// ---- Buttons ----

// Button is a set of keypad buttons. Single buttons are one bit each; the
// Up+Down chord is the union of two bits.
type Button uint8

const (
	ButtonUp Button = 1 << iota
	ButtonDown
	ButtonPos1
	ButtonPos2

	ButtonNone      Button = 0
	ButtonUpAndDown        = ButtonUp | ButtonDown
	ButtonAll              = ButtonUp | ButtonDown | ButtonPos1 | ButtonPos2
)

// Buttons lists every physical button in keypad order.
var Buttons = [...]Button{ButtonUp, ButtonDown, ButtonPos1, ButtonPos2}

// Index is the position of a single button in Buttons, or -1.
func (b Button) Index() int {
	for i, x := range Buttons {
		if x == b {
			return i
		}
	}
	return -1
}

func (b Button) Has(x Button) bool { return x != 0 && b&x == x }
func (b Button) IsEmpty() bool     { return b == 0 }

// Single reports whether exactly one button is in the set.
func (b Button) Single() bool { return b != 0 && b&(b-1) == 0 }

var buttonNames = [...]string{"up", "down", "pos1", "pos2"}

func (b Button) String() string {
	if b == 0 {
		return "none"
	}
	var parts []string
	for i, x := range Buttons {
		if b.Has(x) {
			parts = append(parts, buttonNames[i])
		}
	}
	return strings.Join(parts, "+")
}

// ParseButton accepts a single button name as returned by String.
func ParseButton(s string) (Button, bool) {
	for i, n := range buttonNames {
		if n == s {
			return Buttons[i], true
		}
	}
	return ButtonNone, false
}
