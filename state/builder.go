package state

import (
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// Builder turns an ordered Operation sequence into Rows: it derives the
// address limb and storage key byte decompositions, RLC-encodes the storage
// key under the per-proof challenge, and threads the trie-lookup counter,
// advancing it on every Storage and Account operation.
//
// A Builder is the single owner of its counter and must not be shared across
// concurrent uses.
type Builder struct {
	challenge  fr.Element
	mptCounter uint64
}

func NewBuilder(challenge fr.Element) *Builder {
	return &Builder{challenge: challenge}
}

// Row converts one Operation into its decomposed Row form. It is total: every
// Operation yields a Row, and rejecting malformed ones is the validator's
// job.
func (b *Builder) Row(op Operation) Row {
	var row Row

	row.RWCounter.SetUint64(op.RWCounter)
	if op.RW == Write {
		row.IsWrite.SetOne()
	}

	row.Keys[keyTag].SetUint64(uint64(op.Tag))
	row.Keys[keyID].SetUint64(op.ID)
	row.Keys[keyFieldTag].SetUint64(op.FieldTag)

	addr := op.Address
	if addr == nil {
		addr = new(uint256.Int)
	}
	row.Keys[keyAddress].SetBigInt(addr.ToBig())
	addrBytes := addr.Bytes20()
	for i := 0; i < AddressLimbCount; i++ {
		// Bytes20 is big-endian; the limbs are little-endian base 2^16.
		lo := uint64(addrBytes[19-2*i])
		hi := uint64(addrBytes[18-2*i])
		row.AddressLimbs[i].SetUint64(lo + hi<<8)
	}

	key := op.StorageKey
	if key == nil {
		key = new(uint256.Int)
	}
	keyBytes := key.Bytes32()
	for i := 0; i < StorageKeyByteCount; i++ {
		row.StorageKeyBytes[i].SetUint64(uint64(keyBytes[31-i]))
	}
	row.Keys[keyStorageKey] = linearCombine(row.StorageKeyBytes[:], &b.challenge)

	row.Value = op.Value
	row.CommittedValue = op.CommittedValue

	if op.Tag == TagStorage || op.Tag == TagAccount {
		b.mptCounter++
	}
	row.MPTCounter.SetUint64(b.mptCounter)

	return row
}

// BuildRows materializes the whole Operation sequence in a single forward
// pass, one Row per Operation, order preserved.
func BuildRows(ops []Operation, challenge fr.Element) []Row {
	b := NewBuilder(challenge)
	rows := make([]Row, len(ops))
	for i, op := range ops {
		rows[i] = b.Row(op)
	}
	return rows
}

// SortRows sorts rows in place into the canonical composite key order
// (tag, id, address, field_tag, storage key, rw_counter), the order the
// validator expects. The sort is stable so equal keys keep their build order,
// though rw_counter uniqueness makes full key ties impossible in practice.
func SortRows(rows []Row) {
	keys := make([][]uint64, len(rows))
	for i := range rows {
		keys[i] = sortKeyLimbs(&rows[i])
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return lessThan(keys[idx[a]], keys[idx[b]])
	})
	sorted := make([]Row, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}
