package common

import "math"

// CheckedAdd returns a+b, or ErrArithmeticOverflow when the sum would wrap.
// All aggregate counters in the native modules grow through this helper so an
// overflow fails the whole operation instead of corrupting totals.
func CheckedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}
