package types

// ---- Screen model ----
//
// Screen is a closed sum type: one struct per menu. The display sink
// switches on the concrete type; the set is fixed.

type Screen interface{ isScreen() }

// StartScreen shows the live height and the acknowledged direction.
type StartScreen struct {
	Height    Height
	Direction Direction
}

// OptionsScreen is the top-level menu.
type OptionsScreen struct {
	Selected OptionItem
	// Unsaved is set when the last write to storage failed.
	Unsaved bool
}

// CalibrationScreen lists the calibration table, one point at a time.
type CalibrationScreen struct {
	Selected CalibrationSelection
	// Index and Point describe the shown entry; valid when Count > 0.
	Index   int
	Point   CalibrationPoint
	Count   int
	Full    bool
	Unsaved bool
}

// AddPointScreen edits the length for a captured raw reading.
type AddPointScreen struct {
	Raw    uint16
	Length Millimeters
	Step   uint16
}

// ResetDriveScreen is shown while the reset drive runs.
type ResetDriveScreen struct{}

func (StartScreen) isScreen()       {}
func (OptionsScreen) isScreen()     {}
func (CalibrationScreen) isScreen() {}
func (AddPointScreen) isScreen()    {}
func (ResetDriveScreen) isScreen()  {}

// ---- Options menu items ----

type OptionItem uint8

const (
	OptionSavePos1 OptionItem = iota
	OptionSavePos2
	OptionCalibration
	OptionResetDrive

	optionCount
)

var optionLabels = [optionCount]string{
	"Store position 1",
	"Store position 2",
	"Height calibration",
	"Start reset drive",
}

// OptionItems lists the menu in display order.
var OptionItems = [optionCount]OptionItem{OptionSavePos1, OptionSavePos2, OptionCalibration, OptionResetDrive}

func (o OptionItem) Label() string {
	if o >= optionCount {
		return "?"
	}
	return optionLabels[o]
}

func (o OptionItem) Next() OptionItem { return (o + 1) % optionCount }
func (o OptionItem) Prev() OptionItem { return (o + optionCount - 1) % optionCount }

// ---- Calibration menu ----

type CalibrationSelection uint8

const (
	SelectAddNew CalibrationSelection = iota
	SelectRemoveAll
	SelectShowOne
)

func (s CalibrationSelection) String() string {
	switch s {
	case SelectRemoveAll:
		return "remove_all"
	case SelectShowOne:
		return "show_one"
	default:
		return "add_new"
	}
}

// CalibrationPoint maps a raw sensor reading to a physical length.
type CalibrationPoint struct {
	Raw    uint16
	Length Millimeters
}
