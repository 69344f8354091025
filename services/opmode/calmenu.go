package opmode

import (
	"deskctl-go/calibration"
	"deskctl-go/types"
)

// calMenu is the cursor over the calibration list: AddNew, RemoveAll,
// then one entry per point. With an empty table the cursor stays on AddNew.
type calMenu struct {
	table    calibration.Table
	selected types.CalibrationSelection
	shown    int
}

func newCalMenu(t calibration.Table) *calMenu {
	return &calMenu{table: t, selected: types.SelectAddNew}
}

func (m *calMenu) next() {
	if m.table.IsEmpty() {
		return
	}
	switch m.selected {
	case types.SelectAddNew:
		m.selected = types.SelectRemoveAll
	case types.SelectRemoveAll:
		m.shown = 0
		m.selected = types.SelectShowOne
	case types.SelectShowOne:
		if m.shown+1 >= m.table.Len() {
			m.selected = types.SelectAddNew
		} else {
			m.shown++
		}
	}
}

func (m *calMenu) prev() {
	if m.table.IsEmpty() {
		return
	}
	switch m.selected {
	case types.SelectAddNew:
		m.shown = m.table.Len() - 1
		m.selected = types.SelectShowOne
	case types.SelectRemoveAll:
		m.selected = types.SelectAddNew
	case types.SelectShowOne:
		if m.shown == 0 {
			m.selected = types.SelectRemoveAll
		} else {
			m.shown--
		}
	}
}

// update swaps in a new table, keeping the cursor in range.
func (m *calMenu) update(t calibration.Table) {
	m.table = t
	if last := t.Len() - 1; m.shown > last {
		m.shown = max(last, 0)
	}
	if t.IsEmpty() {
		m.selected = types.SelectAddNew
	}
}

func (m *calMenu) screen(unsaved bool) types.CalibrationScreen {
	s := types.CalibrationScreen{
		Selected: m.selected,
		Count:    m.table.Len(),
		Full:     m.table.IsFull(),
		Unsaved:  unsaved,
	}
	if !m.table.IsEmpty() {
		s.Index = m.shown
		s.Point = m.table.At(m.shown)
	}
	return s
}
