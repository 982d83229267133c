// Package mathutil holds small generic numeric helpers shared by the
// simulator and its experiment drivers.
package mathutil

import "golang.org/x/exp/constraints"

// Number is any built-in integer or floating-point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Mean returns the arithmetic mean of list, or 0 for an empty list.
func Mean[T Number](list []T) float64 {
	if len(list) == 0 {
		return 0
	}
	var sum float64
	for _, val := range list {
		sum += float64(val)
	}
	return sum / float64(len(list))
}

// Max returns the largest element of list, or the zero value for an empty list.
func Max[T Number](list []T) T {
	var best T
	for i, val := range list {
		if i == 0 || val > best {
			best = val
		}
	}
	return best
}
