package display

import (
	"fmt"

	"deskctl-go/types"
)

// Frame is a rendered screen: body lines plus a footer hint.
type Frame struct {
	Lines  []string `json:"lines"`
	Footer string   `json:"footer"`
}

const notSaved = "not saved!"

// FormatHeight renders a height in whole centimetres, or "???cm" when the
// sensor is not calibrated.
func FormatHeight(h types.Height) string {
	if !h.Calibrated {
		return "???cm"
	}
	return fmt.Sprintf("%3dcm", h.MM.AsCM())
}

// FormatLength renders millimetres as centimetres with one decimal.
func FormatLength(mm types.Millimeters) string {
	return fmt.Sprintf("%3d,%dcm", mm.AsCM(), mm.AsMM()%10)
}

func item(selected bool, label string) string {
	if selected {
		return "-> " + label
	}
	return "   " + label
}

// Lines renders any screen.
func Lines(s types.Screen) Frame {
	switch sc := s.(type) {
	case types.StartScreen:
		return Frame{Lines: []string{sc.Direction.Glyph() + " " + FormatHeight(sc.Height)}}

	case types.OptionsScreen:
		f := Frame{Footer: "up/down nav | pos1 exit | pos2 select"}
		for _, o := range types.OptionItems {
			f.Lines = append(f.Lines, item(o == sc.Selected, o.Label()))
		}
		if sc.Unsaved {
			f.Lines = append(f.Lines, notSaved)
		}
		return f

	case types.CalibrationScreen:
		f := Frame{Footer: "+- nav | pos1 exit | pos2 del"}
		if sc.Selected == types.SelectAddNew {
			f.Footer = "+- nav | pos1 exit | pos2 sel"
		}
		add := "Add new calibration point"
		if sc.Full {
			add += " (full)"
		}
		f.Lines = append(f.Lines, item(sc.Selected == types.SelectAddNew, add))
		if sc.Count > 0 {
			f.Lines = append(f.Lines,
				item(sc.Selected == types.SelectRemoveAll, "Remove all calibration points"),
				item(sc.Selected == types.SelectShowOne,
					fmt.Sprintf("%d) %d <=> %dmm", sc.Index, sc.Point.Raw, sc.Point.Length.AsMM())),
			)
		}
		if sc.Unsaved {
			f.Lines = append(f.Lines, notSaved)
		}
		return f

	case types.AddPointScreen:
		return Frame{
			Lines: []string{
				fmt.Sprintf("ADC: %d", sc.Raw),
				FormatLength(sc.Length),
				fmt.Sprintf("step %d", sc.Step),
			},
			Footer: "+ inc | - dec | pos1 exit | pos2 sav",
		}

	case types.ResetDriveScreen:
		return Frame{Lines: []string{"Reset drive running"}, Footer: "any key stops"}

	default:
		return Frame{Lines: []string{"?"}}
	}
}
