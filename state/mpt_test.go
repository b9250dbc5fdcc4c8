package state

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMPTTableProjection(t *testing.T) {
	key := uint256.NewInt(0xbeef)
	rows := BuildRows([]Operation{
		NewStorageOp(1, Write, 1, testAddr, key, fq(10), fq(4)),
		NewStorageOp(2, Write, 1, testAddr, key, fq(20), fq(4)),
		NewAccountOp(3, Write, testAddr2, AccountBalance, fq(500), fq(100)),
		NewMemoryOp(4, Write, 1, 0, 9),
	}, testChallenge)
	SortRows(rows)
	entries := MPTTableFromRows(rows).Entries()

	require.Len(t, entries, 3, "only Storage and Account rows project")

	require.True(t, entries[0].ValuePrev.Equal(fqp(4)),
		"first touch of a slot reaches back to the committed value")
	require.True(t, entries[1].ValuePrev.Equal(fqp(10)),
		"later touches chain from the preceding row's value")
	require.True(t, entries[1].Value.Equal(fqp(20)))

	var storageTarget fr.Element
	storageTarget.SetUint64(uint64(MPTStorage))
	require.True(t, entries[0].Target.Equal(&storageTarget))
	require.True(t, entries[1].Target.Equal(&storageTarget))

	var balanceTarget fr.Element
	balanceTarget.SetUint64(uint64(AccountBalance))
	require.True(t, entries[2].Target.Equal(&balanceTarget),
		"account entries are targeted by their field tag")
	require.True(t, entries[2].ValuePrev.Equal(fqp(100)))
	require.True(t, entries[2].Key.IsZero(), "account entries carry no storage key")
}

func TestMPTTableLookup(t *testing.T) {
	key := uint256.NewInt(1)
	rows := BuildRows([]Operation{
		NewStorageOp(1, Write, 1, testAddr, key, fq(7), fq(0)),
	}, testChallenge)
	SortRows(rows)
	table := MPTTableFromRows(rows)
	row := &rows[0]

	e, ok := table.Lookup(&row.MPTCounter, fqp(uint64(MPTStorage)), row.Address(), row.StorageKey())
	require.True(t, ok, "exact four-column match must hit")
	require.True(t, e.Value.Equal(&row.Value))

	_, ok = table.Lookup(fqp(99), fqp(uint64(MPTStorage)), row.Address(), row.StorageKey())
	require.False(t, ok, "wrong counter must miss")

	_, ok = table.Lookup(&row.MPTCounter, fqp(uint64(MPTNonce)), row.Address(), row.StorageKey())
	require.False(t, ok, "wrong target must miss")
}

func TestMPTTableDistinctSlotsDoNotChain(t *testing.T) {
	keyA := uint256.NewInt(1)
	keyB := uint256.NewInt(2)
	rows := BuildRows([]Operation{
		NewStorageOp(1, Write, 1, testAddr, keyA, fq(10), fq(3)),
		NewStorageOp(2, Write, 1, testAddr, keyB, fq(20), fq(5)),
	}, testChallenge)
	SortRows(rows)
	entries := MPTTableFromRows(rows).Entries()

	require.Len(t, entries, 2)
	require.True(t, entries[0].ValuePrev.Equal(fqp(3)))
	require.True(t, entries[1].ValuePrev.Equal(fqp(5)),
		"a different slot starts from its own committed value")
}
