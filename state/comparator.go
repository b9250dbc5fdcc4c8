package state

// lessThan reports whether lhs < rhs, both given as little-endian sequences
// of equally sized limbs. Starting from the least significant limb,
//
//	lt := lhs[0] < rhs[0]
//	lt := lhs[i] < rhs[i] || (lhs[i] == rhs[i] && lt)
//
// for each more significant limb i. This mirrors the chain of comparison
// gadgets the circuit spends on the row order, one per limb.
func lessThan(lhs, rhs []uint64) bool {
	lt := lhs[0] < rhs[0]
	for i := 1; i < len(lhs); i++ {
		lt = lhs[i] < rhs[i] || (lhs[i] == rhs[i] && lt)
	}
	return lt
}
