package types

import (
	"fmt"
	"math"

	"deskctl-go/x/mathx"
)

// ---- Lengths ----

// Millimeters is a bounded, non-negative length. Arithmetic saturates at
// 0 and MaxMillimeters instead of wrapping.
type Millimeters uint16

const MaxMillimeters Millimeters = math.MaxUint16

// Tolerances used when comparing heights.
const (
	// StandstillTolerance decides whether the column already is at a target.
	StandstillTolerance Millimeters = 2
	// MovementTolerance decides when a moving column has arrived. It is
	// wider than StandstillTolerance so the drive does not chatter.
	MovementTolerance Millimeters = 18
)

func MM(v uint16) Millimeters { return Millimeters(v) }

func (m Millimeters) AsMM() uint16 { return uint16(m) }
func (m Millimeters) AsCM() uint16 { return uint16(m) / 10 }
func (m Millimeters) IsZero() bool { return m == 0 }

// Add returns m+d, saturating at MaxMillimeters.
func (m Millimeters) Add(d Millimeters) Millimeters {
	return mathx.SatAdd(m, d, MaxMillimeters)
}

// Sub returns m-d, saturating at zero.
func (m Millimeters) Sub(d Millimeters) Millimeters {
	return mathx.SatSub(m, d)
}

func (m Millimeters) String() string { return fmt.Sprintf("%dmm", uint16(m)) }

// Ordering is the result of a three-way comparison.
type Ordering int8

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// CmpFuzzy compares m to other, treating values at most tol apart as Equal.
func (m Millimeters) CmpFuzzy(other, tol Millimeters) Ordering {
	if mathx.AbsDiff(m, other) <= tol {
		return Equal
	}
	if m < other {
		return Less
	}
	return Greater
}

// Height is a calibrated reading. Calibrated is false while the table is
// empty; such heights must not be shown as numbers.
type Height struct {
	MM         Millimeters
	Calibrated bool
}
