package state

import (
	"errors"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"
)

// ValidateRow decides whether row is acceptable as the immediate successor of
// prev, given the membership oracle and the per-proof RLC challenge. Rows are
// expected in canonical sorted order; every rule only ever looks at the
// current row and the one directly before it. The first row of a table is
// validated against the synthetic all-zero StartRow.
//
// A nil return means accept. A non-nil return is always a *RejectionError
// naming the violated rule; its Index is -1 because a single pair carries no
// position.
func ValidateRow(row, prev *Row, oracle MPTLookup, challenge fr.Element) error {
	if err := checkAnyTarget(row, prev, &challenge); err != nil {
		return err
	}

	switch row.Tag() {
	case TagStart:
		return checkStart(row, prev)
	case TagMemory:
		return checkMemory(row, prev)
	case TagStack:
		return checkStack(row, prev)
	case TagStorage:
		return checkStorage(row, prev, oracle)
	case TagCallContext:
		return checkCallContext(row, prev)
	case TagAccount:
		return checkAccount(row, prev, oracle)
	case TagTxRefund:
		return checkTxRefund(row, prev)
	case TagTxAccessListAccount:
		return checkTxAccessListAccount(row, prev)
	case TagTxAccessListAccountStorage:
		return checkTxAccessListAccountStorage(row, prev)
	case TagAccountDestructed:
		return checkAccountDestructed(row, prev)
	case TagTxLog:
		return checkTxLog(row, prev)
	case TagTxReceipt:
		return checkTxReceipt(row, prev)
	default:
		// Unreachable: the tag range check already ran.
		return reject(ErrRange, row.Tag(), "tag %d is not a known target", row.Tag())
	}
}

// checkAnyTarget holds the constraints shared by all rows, no matter which
// target they use, checked before dispatching to the per-target rules.
func checkAnyTarget(row, prev *Row, challenge *fr.Element) error {
	tag := row.Tag()

	// Key ranges. The field tag bound is the larger of the CallContext and
	// Account enumerations; the real circuit applies it per target.
	if !inRange(&row.Keys[keyTag], 1, MaxTag) {
		return reject(ErrRange, tag, "tag %s exceeds [1, %d]", row.Keys[keyTag].String(), MaxTag)
	}
	if !inRange(&row.Keys[keyID], 0, MaxID) {
		return reject(ErrRange, tag, "id %s exceeds %d bits", row.Keys[keyID].String(), IDBits)
	}
	if !inRange(&row.Keys[keyFieldTag], 0, MaxFieldTag) {
		return reject(ErrRange, tag, "field_tag %s exceeds [0, %d]", row.Keys[keyFieldTag].String(), MaxFieldTag)
	}

	// The address must equal the base-2^16 combination of its limbs, each
	// limb in range. The limbs stand in for the address wherever integer
	// order matters.
	for i := range row.AddressLimbs {
		if !inRange(&row.AddressLimbs[i], 0, 1<<16-1) {
			return reject(ErrRange, tag, "address limb %d exceeds 16 bits", i)
		}
	}
	var base fr.Element
	base.SetUint64(1 << 16)
	if combined := linearCombine(row.AddressLimbs[:], &base); !combined.Equal(&row.Keys[keyAddress]) {
		return reject(ErrRange, tag, "address does not match its limb decomposition")
	}

	// The storage key must equal the RLC of its byte decomposition under the
	// per-proof challenge.
	if rlc := linearCombine(row.StorageKeyBytes[:], challenge); !rlc.Equal(&row.Keys[keyStorageKey]) {
		return reject(ErrRange, tag, "storage_key does not match the RLC of its bytes")
	}

	if !inRange(&row.IsWrite, 0, 1) {
		return reject(ErrRange, tag, "is_write %s is not boolean", row.IsWrite.String())
	}

	// Keys and rw counter are sorted in lexicographic order, which also
	// forces the tag to increase monotonically for everything except Start.
	if tag != TagStart {
		if !lessThan(sortKeyLimbs(prev), sortKeyLimbs(row)) {
			return reject(ErrOrder, tag, "row does not sort strictly after its predecessor")
		}
	}

	// Read consistency: a read of an unchanged slot returns the last value.
	if row.IsWrite.IsZero() && allKeysEq(row, prev) && !row.Value.Equal(&prev.Value) {
		return reject(ErrConsistency, tag, "read value %s diverges from previous value %s",
			row.Value.String(), prev.Value.String())
	}

	// The trie-lookup counter advances by exactly one on Storage and Account
	// rows and holds otherwise.
	if tag != TagStart {
		if tag == TagStorage || tag == TagAccount {
			var want fr.Element
			want.SetOne()
			want.Add(&want, &prev.MPTCounter)
			if !row.MPTCounter.Equal(&want) {
				return reject(ErrCounter, tag, "mpt_counter %s does not increment %s by one",
					row.MPTCounter.String(), prev.MPTCounter.String())
			}
		} else if !row.MPTCounter.Equal(&prev.MPTCounter) {
			return reject(ErrCounter, tag, "mpt_counter %s drifts from %s on a non-trie row",
				row.MPTCounter.String(), prev.MPTCounter.String())
		}
	}

	// rw_counter zero is reserved for the Start padding.
	if tag != TagStart && row.RWCounter.IsZero() {
		return reject(ErrRange, tag, "rw_counter must be nonzero")
	}

	return nil
}

func checkStart(row, prev *Row) error {
	if !row.RWCounter.IsZero() {
		return reject(ErrShape, TagStart, "rw_counter %s is not zero", row.RWCounter.String())
	}
	if !row.MPTCounter.IsZero() {
		return reject(ErrCounter, TagStart, "mpt_counter %s is not zero", row.MPTCounter.String())
	}
	return nil
}

func checkMemory(row, prev *Row) error {
	if err := unusedKeysZero(row, TagMemory, keyFieldTag, keyStorageKey); err != nil {
		return err
	}

	// First access of an address in a call: reads see uninitialized memory,
	// which is zero.
	if !allKeysEq(row, prev) && row.IsWrite.IsZero() && !row.Value.IsZero() {
		return reject(ErrConsistency, TagMemory, "first read of an address must return zero, got %s",
			row.Value.String())
	}

	if !inRange(row.Address(), 0, MaxMemoryAddress) {
		return reject(ErrRange, TagMemory, "memory address %s exceeds 32 bits", row.Address().String())
	}
	if !inRange(&row.Value, 0, 255) {
		return reject(ErrRange, TagMemory, "memory value %s is not a byte", row.Value.String())
	}
	return nil
}

func checkStack(row, prev *Row) error {
	if err := unusedKeysZero(row, TagStack, keyFieldTag, keyStorageKey); err != nil {
		return err
	}

	// A stack position cannot be read before it has been written, so the
	// first access of a position in a call must be a write.
	if !allKeysEq(row, prev) && row.IsWrite.IsZero() {
		return reject(ErrConsistency, TagStack, "first access of a stack position must be a write")
	}

	if !inRange(row.Address(), 0, MaxStackPtr) {
		return reject(ErrRange, TagStack, "stack pointer %s exceeds %d", row.Address().String(), MaxStackPtr)
	}

	// Within one call the stack pointer only stays or grows by one.
	if row.Keys[keyTag].Equal(&prev.Keys[keyTag]) && row.ID().Equal(prev.ID()) {
		var diff fr.Element
		diff.Sub(row.Address(), prev.Address())
		if !inRange(&diff, 0, 1) {
			return reject(ErrRange, TagStack, "stack pointer moved from %s to %s, only steps of 0 or 1 are allowed",
				prev.Address().String(), row.Address().String())
		}
	}
	return nil
}

func checkStorage(row, prev *Row, oracle MPTLookup) error {
	if err := unusedKeysZero(row, TagStorage, keyFieldTag); err != nil {
		return err
	}

	// The committed value is fixed at the first touch of a slot and must not
	// drift while the keys stay the same.
	if allKeysEq(row, prev) && !row.CommittedValue.Equal(&prev.CommittedValue) {
		return reject(ErrConsistency, TagStorage, "committed value %s drifts from %s",
			row.CommittedValue.String(), prev.CommittedValue.String())
	}

	// TODO: one lookup per storage update; merging all updates of a key into
	// a single lookup using the first and last values is a pending
	// optimization.

	var target fr.Element
	target.SetUint64(uint64(MPTStorage))
	return mptLookup(row, prev, oracle, TagStorage, &target, row.StorageKey())
}

func checkCallContext(row, prev *Row) error {
	if err := unusedKeysZero(row, TagCallContext, keyAddress, keyStorageKey); err != nil {
		return err
	}

	// TODO: missing constraints.
	return nil
}

func checkAccount(row, prev *Row, oracle MPTLookup) error {
	if err := unusedKeysZero(row, TagAccount, keyID, keyStorageKey); err != nil {
		return err
	}

	if allKeysEq(row, prev) && !row.CommittedValue.Equal(&prev.CommittedValue) {
		return reject(ErrConsistency, TagAccount, "committed value %s drifts from %s",
			row.CommittedValue.String(), prev.CommittedValue.String())
	}

	// The lookup target is the field tag itself, selecting which account
	// attribute the trie update concerns. Value transition legality (a nonce
	// moving by one, say) is constrained by the execution layer, not here.
	var zero fr.Element
	return mptLookup(row, prev, oracle, TagAccount, row.FieldTag(), &zero)
}

func checkTxRefund(row, prev *Row) error {
	if err := unusedKeysZero(row, TagTxRefund, keyAddress, keyFieldTag, keyStorageKey); err != nil {
		return err
	}

	// TODO: missing constraints. When the keys change the value should be
	// zero, but that rule is not pinned down yet.
	return nil
}

func checkTxAccessListAccount(row, prev *Row) error {
	if err := unusedKeysZero(row, TagTxAccessListAccount, keyFieldTag, keyStorageKey); err != nil {
		return err
	}

	// TODO: missing constraints. When the keys change the value should be
	// zero, but that rule is not pinned down yet.
	return nil
}

func checkTxAccessListAccountStorage(row, prev *Row) error {
	if err := unusedKeysZero(row, TagTxAccessListAccountStorage, keyFieldTag); err != nil {
		return err
	}

	// TODO: missing constraints. When the keys change the value should be
	// zero, but that rule is not pinned down yet.
	return nil
}

func checkAccountDestructed(row, prev *Row) error {
	if err := unusedKeysZero(row, TagAccountDestructed, keyID, keyFieldTag, keyStorageKey); err != nil {
		return err
	}

	// TODO: missing constraints. When the keys change the value should be
	// zero, but that rule is not pinned down yet.
	return nil
}

func checkTxLog(row, prev *Row) error {
	// Logs are append-only: every TxLog row is a write.
	if !row.IsWrite.IsOne() {
		return reject(ErrShape, TagTxLog, "log rows must be writes")
	}
	return nil
}

func checkTxReceipt(row, prev *Row) error {
	if err := unusedKeysZero(row, TagTxReceipt, keyAddress, keyStorageKey); err != nil {
		return err
	}

	var fieldTag fr.Element

	// The post-state/status attribute is boolean per EIP-658.
	fieldTag.SetUint64(uint64(TxReceiptPostStateOrStatus))
	if row.FieldTag().Equal(&fieldTag) && !inRange(&row.Value, 0, 1) {
		return reject(ErrRange, TagTxReceipt, "post-state/status value %s is not boolean", row.Value.String())
	}

	// When the transaction id changes under an unchanged tag it must step by
	// exactly one, and cumulative gas used must strictly increase with it.
	if row.Keys[keyTag].Equal(&prev.Keys[keyTag]) && !row.ID().Equal(prev.ID()) {
		var want fr.Element
		want.SetOne()
		want.Add(&want, prev.ID())
		if !row.ID().Equal(&want) {
			return reject(ErrOrder, TagTxReceipt, "transaction id %s does not increment %s by one",
				row.ID().String(), prev.ID().String())
		}
		fieldTag.SetUint64(uint64(TxReceiptCumulativeGasUsed))
		if row.FieldTag().Equal(&fieldTag) && row.Value.Cmp(&prev.Value) <= 0 {
			return reject(ErrOrder, TagTxReceipt, "cumulative gas used %s does not exceed %s",
				row.Value.String(), prev.Value.String())
		}
	}

	// The first receipt row belongs to transaction 1.
	if !row.Keys[keyTag].Equal(&prev.Keys[keyTag]) && !row.ID().IsOne() {
		return reject(ErrOrder, TagTxReceipt, "first receipt row has transaction id %s, want 1", row.ID().String())
	}

	if !inRange(row.ID(), 1, MaxTxReceiptID) {
		return reject(ErrRange, TagTxReceipt, "transaction id %s exceeds [1, %d]", row.ID().String(), MaxTxReceiptID)
	}
	return nil
}

// mptLookup enforces the counter-threaded lookup of a Storage or Account row
// against the membership oracle. The expected previous value is the preceding
// row's value when both rows touch the same slot, and the row's committed
// value on the first touch.
func mptLookup(row, prev *Row, oracle MPTLookup, tag Tag, target, key *fr.Element) error {
	valuePrev := row.CommittedValue
	if allKeysEq(row, prev) {
		valuePrev = prev.Value
	}

	entry, ok := oracle.Lookup(&row.MPTCounter, target, row.Address(), key)
	if !ok {
		return reject(ErrLookup, tag, "no trie update for counter %s", row.MPTCounter.String())
	}
	if !entry.Value.Equal(&row.Value) {
		return reject(ErrLookup, tag, "trie update value %s does not match row value %s",
			entry.Value.String(), row.Value.String())
	}
	if !entry.ValuePrev.Equal(&valuePrev) {
		return reject(ErrLookup, tag, "trie update previous value %s does not match expected %s",
			entry.ValuePrev.String(), valuePrev.String())
	}
	return nil
}

// unusedKeysZero rejects the row unless every listed key slot is zero.
func unusedKeysZero(row *Row, tag Tag, keys ...int) error {
	names := [...]string{"tag", "id", "address", "field_tag", "storage_key"}
	for _, k := range keys {
		if !row.Keys[k].IsZero() {
			return reject(ErrShape, tag, "unused key %s is nonzero", names[k])
		}
	}
	return nil
}

// inRange reports whether x's integer representative lies in [min, max].
// Every declared range bound is far below the field modulus, so the check
// reduces to ordinary integer comparison.
func inRange(x *fr.Element, min, max uint64) bool {
	if !x.IsUint64() {
		return false
	}
	v := x.Uint64()
	return v >= min && v <= max
}

// ValidateRows checks a full table in a single forward scan, validating every
// consecutive pair in order. The first row's predecessor is the synthetic
// all-zero StartRow. On rejection the returned *RejectionError carries the
// offending row index.
func ValidateRows(rows []Row, oracle MPTLookup, challenge fr.Element) error {
	prev := StartRow()
	for i := range rows {
		if err := ValidateRow(&rows[i], &prev, oracle, challenge); err != nil {
			return withIndex(err, i)
		}
		prev = rows[i]
	}
	return nil
}

// ValidateRowsParallel is ValidateRows split across GOMAXPROCS workers. Every
// pair depends only on its two rows and the immutable oracle, so contiguous
// chunks can be checked independently, each seeded with the row preceding the
// chunk. The lowest-index rejection is returned so the verdict is identical
// to ValidateRows.
func ValidateRowsParallel(rows []Row, oracle MPTLookup, challenge fr.Element) error {
	workers := runtime.GOMAXPROCS(0)
	if len(rows) < 2*workers {
		return ValidateRows(rows, oracle, challenge)
	}

	chunk := (len(rows) + workers - 1) / workers
	rejections := make([]error, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(rows))
		if start >= end {
			break
		}
		g.Go(func() error {
			prev := StartRow()
			if start > 0 {
				prev = rows[start-1]
			}
			for i := start; i < end; i++ {
				if err := ValidateRow(&rows[i], &prev, oracle, challenge); err != nil {
					rejections[w] = withIndex(err, i)
					return rejections[w]
				}
				prev = rows[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Rejections land in chunk order, so the first non-nil slot is the
		// lowest-index one.
		for _, rej := range rejections {
			if rej != nil {
				return rej
			}
		}
	}
	return nil
}

func withIndex(err error, i int) error {
	var rej *RejectionError
	if errors.As(err, &rej) {
		rej.Index = i
	}
	return err
}
