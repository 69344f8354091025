package opmode

import (
	"context"
	"time"

	"deskctl-go/types"
	"deskctl-go/x/race"
	"deskctl-go/x/timex"
)

func (m *Machine) startScreen() types.StartScreen {
	return types.StartScreen{Height: m.d.Sensor.Height(), Direction: m.d.Direction.Get()}
}

// start shows the live height until a press arrives. The redraw loop runs
// next to the press wait so a settling press is never cut short.
func (m *Machine) start(ctx context.Context) (Mode, error) {
	for {
		var pressed types.Button
		_, err := race.First(ctx,
			func(ctx context.Context) error {
				if m.needRelease {
					if err := m.w.WaitAllReleased(ctx); err != nil {
						return err
					}
					m.needRelease = false
				}
				b, err := m.w.WaitForPress(ctx)
				pressed = b
				return err
			},
			func(ctx context.Context) error {
				return timex.Every(ctx, m.refresh, func() bool {
					m.show(m.startScreen())
					return true
				})
			},
		)
		if err != nil {
			return ModeStart, err
		}

		m.needRelease = true
		switch {
		case pressed == types.ButtonUpAndDown:
			return ModeOptions, nil
		case pressed == types.ButtonUp:
			next, err := m.jog(ctx, types.ButtonUp, types.Up)
			if err != nil || next != ModeStart {
				return next, err
			}
		case pressed == types.ButtonDown:
			next, err := m.jog(ctx, types.ButtonDown, types.Down)
			if err != nil || next != ModeStart {
				return next, err
			}
		case pressed == types.ButtonPos1 || pressed == types.ButtonPos2:
			slot := 1
			if pressed == types.ButtonPos2 {
				slot = 2
			}
			cfg := m.d.Store.Get()
			target, ok := cfg.Slot(slot).Get()
			if !ok {
				m.log.Debugf("position %d not set", slot)
				continue
			}
			if !m.d.Sensor.Height().Calibrated {
				m.log.Debugf("position %d ignored: height not calibrated", slot)
				continue
			}
			if err := m.DriveToPosition(ctx, target); err != nil {
				return ModeStart, err
			}
		}
	}
}

// jog moves while button is held. Adding the other arrow button turns the
// hold into the Up+Down chord and opens the options menu.
func (m *Machine) jog(ctx context.Context, button types.Button, dir types.Direction) (Mode, error) {
	m.d.Direction.Request(dir)
	defer m.d.Direction.Request(types.Stopped)

	lastDraw := time.Now()
	var next Mode = ModeStart
	err := timex.Every(ctx, m.heightTick, func() bool {
		m.w.Poll()
		held := m.w.Last().Held()
		if held.Has(types.ButtonUpAndDown) {
			next = ModeOptions
			return false
		}
		if !held.Has(button) {
			return false
		}
		if time.Since(lastDraw) >= m.refresh {
			m.show(m.startScreen())
			lastDraw = time.Now()
		}
		return true
	})
	return next, err
}

// onTheWay reports whether the column still has to move in dir to reach
// target, judged with the movement tolerance.
func (m *Machine) onTheWay(dir types.Direction, target types.Millimeters) bool {
	cur := m.d.Sensor.Height().MM
	switch dir {
	case types.Up:
		return cur.CmpFuzzy(target, m.movement) == types.Less
	case types.Down:
		return cur.CmpFuzzy(target, m.movement) == types.Greater
	default:
		return false
	}
}

// DriveToPosition moves the column to target. It returns once the target
// is reached, a button is pressed, or ctx ends; the motor is stopped in
// every case.
// An uncalibrated height leaves the column where it is.
func (m *Machine) DriveToPosition(ctx context.Context, target types.Millimeters) error {
	h := m.d.Sensor.Height()
	if !h.Calibrated {
		m.log.Warnf("drive to %v refused: height not calibrated", target)
		return nil
	}
	var dir types.Direction
	switch h.MM.CmpFuzzy(target, m.standstill) {
	case types.Equal:
		return nil
	case types.Less:
		dir = types.Up
	default:
		dir = types.Down
	}
	m.log.Infof("drive %v to %v (at %v)", dir, target, h.MM)
	m.d.Direction.Request(dir)
	defer m.d.Direction.Request(types.Stopped)

	idx, err := race.First(ctx,
		// Reached.
		func(ctx context.Context) error {
			return timex.Every(ctx, m.heightTick, func() bool { return m.onTheWay(dir, target) })
		},
		// Cancelled by the operator.
		func(ctx context.Context) error {
			if err := m.w.WaitAllReleased(ctx); err != nil {
				return err
			}
			_, err := m.w.WaitForSinglePress(ctx)
			return err
		},
		// Redraw; never finishes on its own.
		func(ctx context.Context) error {
			err := timex.Every(ctx, m.refresh, func() bool {
				m.show(m.startScreen())
				return true
			})
			return err
		},
	)
	switch idx {
	case 0:
		m.log.Infof("reached %v (at %v)", target, m.d.Sensor.Height().MM)
	case 1:
		m.log.Infof("drive cancelled")
	}
	return err
}
