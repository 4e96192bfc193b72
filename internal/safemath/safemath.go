// Package safemath provides overflow-checked arithmetic for the small set
// of integer operations the snapshot core needs when aggregating delegation
// values into a single u64.
package safemath

import "math/bits"

// SafeAdd returns x+y and reports whether the addition overflowed a uint64.
func SafeAdd(x, y uint64) (sum uint64, overflow bool) {
	sum, carryOut := bits.Add64(x, y, 0)
	return sum, carryOut != 0
}

// SumUint64 sums vals, returning an error-signaling false in ok if the
// running total overflows a uint64 at any point.
func SumUint64(vals []uint64) (total uint64, ok bool) {
	ok = true
	for _, v := range vals {
		var overflow bool
		total, overflow = SafeAdd(total, v)
		if overflow {
			return 0, false
		}
	}
	return total, ok
}
