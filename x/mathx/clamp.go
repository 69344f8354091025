package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v && v <= hi (order-insensitive).
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// Min/Max for convenience.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// AbsDiff returns |a-b| without leaving the type's range.
func AbsDiff[T constraints.Integer](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}

// SatAdd adds two unsigned values, sticking at limit instead of wrapping.
func SatAdd[T constraints.Unsigned](a, b, limit T) T {
	if a >= limit || b >= limit-a {
		return limit
	}
	return a + b
}

// SatSub subtracts b from a, sticking at zero instead of wrapping.
func SatSub[T constraints.Unsigned](a, b T) T {
	if b >= a {
		return 0
	}
	return a - b
}
