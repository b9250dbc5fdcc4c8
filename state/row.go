package state

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Declared ranges of the row key fields. The bit widths below them must be
// preserved for cross-checking against the real circuit.
const (
	MaxRWCounter     = 1<<32 - 1
	MaxMemoryAddress = 1<<32 - 1
	MaxStackPtr      = 1023
	MaxTag           = 12
	MaxID            = 1<<28 - 1 // maximum number of calls in a block
	MaxFieldTag      = 24
	MaxTxReceiptID   = 1 << 11

	RWCounterBits = 32
	TagBits       = 4
	IDBits        = 28
	AddressBits   = 160

	// AddressLimbCount is the number of 16-bit limbs of an address,
	// StorageKeyByteCount the number of byte limbs of a storage key, and
	// orderLimbCount the number of 16-bit limbs extracted from the packed
	// composite sort key.
	AddressLimbCount    = 10
	StorageKeyByteCount = 32
	orderLimbCount      = 31
)

// Indices into Row.Keys.
const (
	keyTag = iota
	keyID
	keyAddress
	keyFieldTag
	keyStorageKey
)

// Row is one line of the access log in its decomposed, range-checkable form.
// All fields are elements of the BN254 scalar field, the field the circuit is
// compiled over.
type Row struct {
	// RWCounter reflects the real-time access order during execution. Zero is
	// reserved for the leading Start row.
	RWCounter fr.Element
	// IsWrite is boolean: 1 for writes, 0 for reads.
	IsWrite fr.Element

	// Keys holds (tag, id, address, field_tag, storage_key). The tag selects
	// the per-target constraints; the remaining keys are interpreted
	// differently by each target. The address is a 160-bit value; the storage
	// key is the RLC encoding of the underlying 256-bit key under the
	// per-proof challenge.
	Keys [5]fr.Element

	// AddressLimbs is the address in little-endian base-2^16 limbs. The
	// redundant decomposition exists so the address can be range checked and
	// ordered limb by limb.
	AddressLimbs [AddressLimbCount]fr.Element
	// StorageKeyBytes is the little-endian byte decomposition of the 256-bit
	// storage key whose RLC encoding is Keys[4]. The RLC does not preserve
	// integer order, so ordering uses these bytes instead.
	StorageKeyBytes [StorageKeyByteCount]fr.Element

	Value fr.Element
	// CommittedValue is the value the slot held at the start of the enclosing
	// transaction or block; it is the lookup baseline for the first touch of
	// a key. Only meaningful for Storage and Account rows.
	CommittedValue fr.Element
	// MPTCounter indexes the step of the external trie-update proof backing
	// this row; it advances by exactly one on every Storage or Account row
	// and stays constant otherwise.
	MPTCounter fr.Element
}

// Tag returns the decoded target of the row. Only meaningful once the tag key
// passed its range check.
func (r *Row) Tag() Tag {
	return Tag(r.Keys[keyTag].Uint64())
}

func (r *Row) ID() *fr.Element         { return &r.Keys[keyID] }
func (r *Row) Address() *fr.Element    { return &r.Keys[keyAddress] }
func (r *Row) FieldTag() *fr.Element   { return &r.Keys[keyFieldTag] }
func (r *Row) StorageKey() *fr.Element { return &r.Keys[keyStorageKey] }

// StartRow returns the synthetic all-zero predecessor used when validating
// the first row of a table.
func StartRow() Row {
	return Row{}
}

// allKeysEq reports whether two rows address the same state slot, i.e. all
// five keys match.
func allKeysEq(row, prev *Row) bool {
	for i := range row.Keys {
		if !row.Keys[i].Equal(&prev.Keys[i]) {
			return false
		}
	}
	return true
}

// linearCombine evaluates sum(limbs[i] * base^i) in the field, least
// significant limb first.
func linearCombine(limbs []fr.Element, base *fr.Element) fr.Element {
	var acc fr.Element
	for i := len(limbs) - 1; i >= 0; i-- {
		acc.Mul(&acc, base)
		acc.Add(&acc, &limbs[i])
	}
	return acc
}

// sortKeyLimbs packs all key components and the rw counter into one integer
// and returns its 31 little-endian 16-bit limbs, which realize the canonical
// row order. The packing order, most significant first, is tag, id, address,
// field_tag, storage key byte decomposition, rw_counter; the storage key
// enters as its raw bytes because the RLC encoding does not preserve order.
func sortKeyLimbs(r *Row) []uint64 {
	var tmp big.Int
	v := new(big.Int)
	r.Keys[keyTag].BigInt(v)
	v.Lsh(v, IDBits)
	v.Add(v, r.Keys[keyID].BigInt(&tmp))
	v.Lsh(v, AddressBits)
	v.Add(v, r.Keys[keyAddress].BigInt(&tmp))
	v.Lsh(v, 16)
	v.Add(v, r.Keys[keyFieldTag].BigInt(&tmp))
	v.Lsh(v, 32)
	v.Add(v, storageKeyBytesInt(r, &tmp))
	v.Lsh(v, RWCounterBits)
	v.Add(v, r.RWCounter.BigInt(&tmp))

	limbs := make([]uint64, orderLimbCount)
	var limb big.Int
	for i := range limbs {
		limbs[i] = limb.And(v, mask16).Uint64()
		v.Rsh(v, 16)
	}
	return limbs
}

var mask16 = big.NewInt(0xffff)

// storageKeyBytesInt folds the little-endian storage key bytes back into one
// integer, sum(b[i] * 2^(8i)).
func storageKeyBytesInt(r *Row, tmp *big.Int) *big.Int {
	v := new(big.Int)
	for i := StorageKeyByteCount - 1; i >= 0; i-- {
		v.Lsh(v, 8)
		v.Add(v, r.StorageKeyBytes[i].BigInt(tmp))
	}
	return v
}
