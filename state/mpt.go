package state

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// MPTEntry is one trie update the external trie-commitment circuit vouches
// for. Entries are produced and verified outside this package and are
// immutable once constructed.
type MPTEntry struct {
	Counter   fr.Element
	Target    fr.Element
	Address   fr.Element
	Key       fr.Element
	Value     fr.Element
	ValuePrev fr.Element
}

// MPTLookup is the read-only membership oracle the validator consults for
// Storage and Account rows. Implementations answer by exact match on
// (counter, target, address, key) and must be safe for concurrent readers.
type MPTLookup interface {
	Lookup(counter, target, address, key *fr.Element) (MPTEntry, bool)
}

type mptKey struct {
	counter [fr.Bytes]byte
	target  [fr.Bytes]byte
	address [fr.Bytes]byte
	key     [fr.Bytes]byte
}

// MPTTable is an in-memory MPTLookup. It is built once and read-only
// afterwards, so it can be shared across any number of concurrent readers.
type MPTTable struct {
	entries map[mptKey]MPTEntry
	ordered []MPTEntry
}

func NewMPTTable(entries []MPTEntry) *MPTTable {
	t := &MPTTable{
		entries: make(map[mptKey]MPTEntry, len(entries)),
		ordered: entries,
	}
	for _, e := range entries {
		t.entries[mptKey{
			counter: e.Counter.Bytes(),
			target:  e.Target.Bytes(),
			address: e.Address.Bytes(),
			key:     e.Key.Bytes(),
		}] = e
	}
	return t
}

func (t *MPTTable) Lookup(counter, target, address, key *fr.Element) (MPTEntry, bool) {
	e, ok := t.entries[mptKey{
		counter: counter.Bytes(),
		target:  target.Bytes(),
		address: address.Bytes(),
		key:     key.Bytes(),
	}]
	return e, ok
}

// Entries returns the entries in projection order.
func (t *MPTTable) Entries() []MPTEntry {
	return t.ordered
}

// MPTTableFromRows projects a finalized Row sequence into the oracle-facing
// view consumed by the trie-commitment circuit: one entry per Storage or
// Account row, keyed by its trie-lookup counter. The previous value is the
// preceding row's value when both rows touch the same slot, and the row's
// committed value on the first touch of a slot. The projection is one way;
// nothing feeds back into the Row model.
func MPTTableFromRows(rows []Row) *MPTTable {
	var storageTarget fr.Element
	storageTarget.SetUint64(uint64(MPTStorage))

	var entries []MPTEntry
	for i := range rows {
		row := &rows[i]

		var target fr.Element
		switch row.Tag() {
		case TagStorage:
			target = storageTarget
		case TagAccount:
			target = row.Keys[keyFieldTag]
		default:
			continue
		}

		valuePrev := row.CommittedValue
		if i > 0 && allKeysEq(row, &rows[i-1]) {
			valuePrev = rows[i-1].Value
		}

		entries = append(entries, MPTEntry{
			Counter:   row.MPTCounter,
			Target:    target,
			Address:   row.Keys[keyAddress],
			Key:       row.Keys[keyStorageKey],
			Value:     row.Value,
			ValuePrev: valuePrev,
		})
	}
	return NewMPTTable(entries)
}
