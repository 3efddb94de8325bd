package tensor

import (
	"fmt"
	"slices"
)

// Shape lists the size of each dimension, outermost first. The empty
// shape is a scalar.
type Shape []int

// NumElements returns the product of the dimensions (1 for a scalar).
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate reports a non-positive dimension.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("dimension %d of %v is %d, must be positive", i, s, d)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool { return slices.Equal(s, other) }

// Clone returns a copy.
func (s Shape) Clone() Shape { return slices.Clone(s) }

// ComputeStrides returns row-major strides in elements.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = step
		step *= s[i]
	}
	return strides
}

// BroadcastShapes aligns a and b from the right; each pair of dimensions
// must match or contain a 1. The bool reports whether either side has to
// be expanded.
//
//	[3, 1] and [3, 5] -> [3, 5], true
//	[5]    and [3, 5] -> [3, 5], true
//	[3, 4] and [3, 5] -> error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	n := max(len(a), len(b))
	out := make(Shape, n)
	expanded := len(a) != len(b)
	for i := 1; i <= n; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}
		switch {
		case da == db:
			out[n-i] = da
		case da == 1:
			out[n-i] = db
			expanded = true
		case db == 1:
			out[n-i] = da
			expanded = true
		default:
			return nil, false, fmt.Errorf("shapes %v and %v do not broadcast (dimension %d: %d vs %d)", a, b, n-i, da, db)
		}
	}
	return out, expanded, nil
}
