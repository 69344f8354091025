// Package calibration maps raw sensor readings to lengths through a small,
// sorted table of reference points.
package calibration

import (
	"math"
	"sort"

	"deskctl-go/errcode"
	"deskctl-go/types"
	"deskctl-go/x/mathx"
)

// Capacity is the maximum number of points in a table.
const Capacity = 20

type Point = types.CalibrationPoint

// Table is a fixed-size, value-type set of points kept sorted by Raw with
// no duplicate keys. The zero value is an empty table. Slots past Len are
// always zero so that tables compare with ==.
type Table struct {
	pts [Capacity]Point
	n   uint8
}

// FromPoints builds a table by inserting pts in order.
func FromPoints(pts ...Point) (Table, error) {
	var t Table
	for _, p := range pts {
		if err := t.Insert(p.Raw, p.Length); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (t Table) Len() int       { return int(t.n) }
func (t Table) IsEmpty() bool  { return t.n == 0 }
func (t Table) IsFull() bool   { return int(t.n) >= Capacity }
func (t Table) At(i int) Point { return t.pts[i] }

// Points returns a copy of the points in ascending raw order.
func (t Table) Points() []Point {
	out := make([]Point, t.n)
	copy(out, t.pts[:t.n])
	return out
}

// search returns the index of raw and whether it is present. When absent
// the index is the insertion position.
func (t Table) search(raw uint16) (int, bool) {
	i := sort.Search(int(t.n), func(i int) bool { return t.pts[i].Raw >= raw })
	return i, i < int(t.n) && t.pts[i].Raw == raw
}

// Insert adds or replaces the point for raw. A new key on a full table
// fails with errcode.Full and leaves the table unchanged.
func (t *Table) Insert(raw uint16, length types.Millimeters) error {
	i, found := t.search(raw)
	if found {
		t.pts[i].Length = length
		return nil
	}
	if t.IsFull() {
		return errcode.Full
	}
	copy(t.pts[i+1:t.n+1], t.pts[i:t.n])
	t.pts[i] = Point{Raw: raw, Length: length}
	t.n++
	return nil
}

// Remove deletes the point at index i.
func (t *Table) Remove(i int) error {
	if i < 0 || i >= int(t.n) {
		return errcode.InvalidIndex
	}
	copy(t.pts[i:t.n-1], t.pts[i+1:t.n])
	t.n--
	t.pts[t.n] = Point{}
	return nil
}

func (t *Table) Clear() { *t = Table{} }

// Transform converts a raw reading to a length. An empty table yields 0.
// Readings between points are interpolated linearly; readings outside the
// table extrapolate from the two nearest points. A single-point table
// returns that point's length for every reading.
func (t Table) Transform(raw uint16) types.Millimeters {
	switch t.n {
	case 0:
		return 0
	case 1:
		return t.pts[0].Length
	}

	i, found := t.search(raw)
	if found {
		return t.pts[i].Length
	}

	var left, right Point
	switch {
	case i == 0:
		left, right = t.pts[0], t.pts[1]
	case i == int(t.n):
		left, right = t.pts[t.n-2], t.pts[t.n-1]
	default:
		left, right = t.pts[i-1], t.pts[i]
	}

	dLen := float64(mathx.AbsDiff(right.Length, left.Length))
	dRaw := float64(mathx.AbsDiff(right.Raw, left.Raw))
	slope := dLen / dRaw
	// Going up or down from left depends on which side of left the reading
	// sits and on whether the curve rises.
	offset := slope * float64(mathx.AbsDiff(raw, left.Raw))
	var delta types.Millimeters
	if offset >= float64(types.MaxMillimeters) {
		delta = types.MaxMillimeters
	} else {
		delta = types.Millimeters(math.Trunc(offset))
	}

	rising := right.Length >= left.Length
	if (raw < left.Raw) == rising {
		return left.Length.Sub(delta)
	}
	return left.Length.Add(delta)
}
