package opmode

import (
	"context"
	"errors"
	"time"

	"deskctl-go/errcode"
	"deskctl-go/services/storage"
	"deskctl-go/types"
)

func (m *Machine) calibration(ctx context.Context) (Mode, error) {
	menu := newCalMenu(m.d.Store.Get().Calibration)
	for {
		m.show(menu.screen(m.d.Store.Unsaved()))

		if err := m.w.WaitAllReleased(ctx); err != nil {
			return ModeCalibration, err
		}
		b, err := m.w.WaitForPress(ctx)
		if err != nil {
			return ModeCalibration, err
		}
		switch b {
		case types.ButtonUp:
			menu.prev()
		case types.ButtonDown:
			menu.next()
		case types.ButtonPos1:
			return ModeOptions, nil
		case types.ButtonPos2:
			switch menu.selected {
			case types.SelectAddNew:
				if menu.table.IsFull() {
					m.log.Debugf("calibration table full")
					continue
				}
				return ModeAddPoint, nil
			case types.SelectRemoveAll:
				cfg, err := m.d.Store.Update(func(c *storage.InnerConfiguration) { c.Calibration.Clear() })
				m.calibrationChanged(cfg, err, "cleared")
				menu.update(cfg.Calibration)
			case types.SelectShowOne:
				idx := menu.shown
				var rmErr error
				cfg, err := m.d.Store.Update(func(c *storage.InnerConfiguration) { rmErr = c.Calibration.Remove(idx) })
				if rmErr != nil {
					m.log.Warnf("remove point %d: %v", idx, rmErr)
				}
				m.calibrationChanged(cfg, err, "point removed")
				menu.update(cfg.Calibration)
			}
		}
	}
}

// calibrationChanged logs the outcome of a table update and publishes the
// table. A failed write still leaves the new table in effect.
func (m *Machine) calibrationChanged(cfg storage.InnerConfiguration, err error, what string) {
	if err != nil {
		m.log.Errorf("calibration %s but not saved: %v", what, err)
	} else {
		m.log.Infof("calibration %s, %d points", what, cfg.Calibration.Len())
	}
	m.broadcast(cfg.Calibration)
}

// addPoint captures the raw reading once and lets the operator dial in the
// matching length.
func (m *Machine) addPoint(ctx context.Context) (Mode, error) {
	raw := m.d.Sensor.Raw()
	length := m.d.Sensor.Height().MM
	ladder := NewLadder(m.cfg.LadderSteps, ms(m.cfg.LadderDwellMS))
	m.log.Infof("new calibration point for raw %d", raw)

	for {
		m.show(types.AddPointScreen{Raw: raw, Length: length, Step: ladder.Step()})

		if err := m.w.WaitAllReleased(ctx); err != nil {
			return ModeAddPoint, err
		}
		b, err := m.w.WaitForPress(ctx)
		if err != nil {
			return ModeAddPoint, err
		}
		switch b {
		case types.ButtonUp, types.ButtonDown:
			length, err = m.adjust(ctx, b, raw, length, ladder)
			if err != nil {
				return ModeAddPoint, err
			}
		case types.ButtonPos1:
			m.log.Infof("new calibration point discarded")
			return ModeCalibration, nil
		case types.ButtonPos2:
			var insErr error
			cfg, err := m.d.Store.Update(func(c *storage.InnerConfiguration) {
				insErr = c.Calibration.Insert(raw, length)
			})
			if errors.Is(insErr, errcode.Full) {
				m.log.Warnf("calibration table full; point %d <=> %v dropped", raw, length)
			}
			m.calibrationChanged(cfg, err, "point added")
			return ModeCalibration, nil
		}
	}
}

// adjust applies one unit for the press, then repeats with the ladder step
// while the button stays down.
func (m *Machine) adjust(ctx context.Context, b types.Button, raw uint16, length types.Millimeters, ladder *Ladder) (types.Millimeters, error) {
	apply := func(step uint16) {
		if b == types.ButtonUp {
			length = length.Add(types.Millimeters(step))
		} else {
			length = length.Sub(types.Millimeters(step))
		}
		m.show(types.AddPointScreen{Raw: raw, Length: length, Step: ladder.Step()})
	}

	ladder.Reset(time.Now())
	apply(1)

	repeat := ms(m.cfg.HoldRepeatMS)
	nextRepeat := time.Now().Add(repeat)
	tick := time.NewTicker(m.heightTick)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return length, ctx.Err()
		case now := <-tick.C:
			m.w.Poll()
			if !m.w.Last().Held().Has(b) {
				ladder.Reset(now)
				return length, nil
			}
			if now.Before(nextRepeat) {
				continue
			}
			apply(ladder.Advance(now))
			nextRepeat = now.Add(repeat)
		}
	}
}
