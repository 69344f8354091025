package opmode

import (
	"context"

	"deskctl-go/services/storage"
	"deskctl-go/types"
)

func (m *Machine) options(ctx context.Context) (Mode, error) {
	sel := types.OptionSavePos1
	for {
		m.show(types.OptionsScreen{Selected: sel, Unsaved: m.d.Store.Unsaved()})

		if err := m.w.WaitAllReleased(ctx); err != nil {
			return ModeOptions, err
		}
		b, err := m.w.WaitForPress(ctx)
		if err != nil {
			return ModeOptions, err
		}
		switch b {
		case types.ButtonUp:
			sel = sel.Prev()
		case types.ButtonDown:
			sel = sel.Next()
		case types.ButtonPos1:
			return ModeStart, nil
		case types.ButtonPos2:
			switch sel {
			case types.OptionSavePos1:
				m.savePosition(1)
			case types.OptionSavePos2:
				m.savePosition(2)
			case types.OptionCalibration:
				return ModeCalibration, nil
			case types.OptionResetDrive:
				return ModeResetDrive, nil
			}
		}
	}
}

// savePosition stores the current height in slot. Uncalibrated heights are
// not stored.
func (m *Machine) savePosition(slot int) {
	h := m.d.Sensor.Height()
	if !h.Calibrated {
		m.log.Warnf("position %d not stored: height not calibrated", slot)
		return
	}
	if _, err := m.d.Store.Update(func(c *storage.InnerConfiguration) {
		*c.Slot(slot) = storage.Position(h.MM)
	}); err != nil {
		m.log.Errorf("position %d: %v", slot, err)
		return
	}
	m.log.Infof("position %d = %v", slot, h.MM)
}

// resetDrive runs the reset drive until any button is pressed.
func (m *Machine) resetDrive(ctx context.Context) (Mode, error) {
	m.show(types.ResetDriveScreen{})
	m.d.Direction.Request(types.ResetDrive)
	defer m.d.Direction.Request(types.Stopped)

	if err := m.w.WaitAllReleased(ctx); err != nil {
		return ModeResetDrive, err
	}
	if _, err := m.w.WaitForSinglePress(ctx); err != nil {
		return ModeResetDrive, err
	}
	return ModeOptions, nil
}
