package state

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestAddressLimbDecomposition(t *testing.T) {
	addr := common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	rows := BuildRows([]Operation{
		NewAccountOp(1, Read, addr, AccountNonce, fq(0), fq(0)),
	}, testChallenge)
	row := &rows[0]

	// Limbs are little-endian 16-bit pairs of the 20-byte address.
	var acc, base, limbWeight fr.Element
	base.SetUint64(1 << 16)
	limbWeight.SetOne()
	for i := 0; i < AddressLimbCount; i++ {
		var term fr.Element
		term.Mul(&row.AddressLimbs[i], &limbWeight)
		acc.Add(&acc, &term)
		limbWeight.Mul(&limbWeight, &base)
	}
	require.True(t, acc.Equal(row.Address()), "limbs must recombine to the address key")

	require.True(t, row.AddressLimbs[0].IsUint64(), "limb must fit a word")
	require.EqualValues(t, 0x1314, row.AddressLimbs[0].Uint64(), "lowest limb holds the last two bytes")
	require.EqualValues(t, 0x0102, row.AddressLimbs[AddressLimbCount-1].Uint64(), "highest limb holds the first two bytes")
}

func TestStorageKeyRLC(t *testing.T) {
	key := uint256.NewInt(0).SetBytes(common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000001").Bytes())
	rows := BuildRows([]Operation{
		NewStorageOp(1, Write, 1, testAddr, key, fq(7), fq(0)),
	}, testChallenge)
	row := &rows[0]

	// Direct polynomial evaluation over the little-endian bytes.
	var acc, pow fr.Element
	pow.SetOne()
	for i := 0; i < StorageKeyByteCount; i++ {
		var term fr.Element
		term.Mul(&row.StorageKeyBytes[i], &pow)
		acc.Add(&acc, &term)
		pow.Mul(&pow, &testChallenge)
	}
	require.True(t, acc.Equal(row.StorageKey()), "key bytes must combine to the storage key under the challenge")

	require.True(t, row.StorageKeyBytes[0].IsOne(), "lowest byte of the key")
	require.True(t, row.StorageKeyBytes[StorageKeyByteCount-1].IsUint64())
	require.EqualValues(t, 0xde, row.StorageKeyBytes[StorageKeyByteCount-1].Uint64())
}

func TestMPTCounterThreading(t *testing.T) {
	key := uint256.NewInt(5)
	rows := BuildRows([]Operation{
		NewMemoryOp(1, Write, 1, 0, 42),
		NewStorageOp(2, Write, 1, testAddr, key, fq(7), fq(0)),
		NewStackOp(3, Write, 1, 0, fq(1)),
		NewAccountOp(4, Write, testAddr, AccountBalance, fq(100), fq(0)),
		NewStorageOp(5, Read, 1, testAddr, key, fq(7), fq(0)),
	}, testChallenge)

	require.True(t, rows[0].MPTCounter.IsZero(), "memory rows do not touch the trie")
	require.EqualValues(t, 1, rows[1].MPTCounter.Uint64(), "first trie access")
	require.EqualValues(t, 1, rows[2].MPTCounter.Uint64(), "non-trie rows carry the running counter")
	require.EqualValues(t, 2, rows[3].MPTCounter.Uint64())
	require.EqualValues(t, 3, rows[4].MPTCounter.Uint64())
}

func TestSortRowsCanonicalOrder(t *testing.T) {
	rows := BuildRows([]Operation{
		NewStackOp(7, Write, 2, 0, fq(1)),
		NewMemoryOp(9, Write, 1, 0, 3),
		NewMemoryOp(4, Read, 1, 0, 3),
		NewStartOp(),
	}, testChallenge)
	SortRows(rows)

	require.Equal(t, TagStart, rows[0].Tag())
	require.Equal(t, TagMemory, rows[1].Tag())
	require.Equal(t, TagMemory, rows[2].Tag())
	require.Equal(t, TagStack, rows[3].Tag())
	require.EqualValues(t, 4, rows[1].RWCounter.Uint64(), "ties on keys break by rw counter")
	require.EqualValues(t, 9, rows[2].RWCounter.Uint64())
}

func TestSortRowsIsStableUnderRebuild(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	properties.Property("sorting is idempotent", prop.ForAll(
		func(addrs []uint8, rwcs []uint16) bool {
			ops := make([]Operation, len(addrs))
			for i := range addrs {
				ops[i] = NewMemoryOp(uint64(rwcs[i])+1, Write, 1, uint64(addrs[i]), 0)
			}
			rows := BuildRows(ops, testChallenge)
			SortRows(rows)
			again := make([]Row, len(rows))
			copy(again, rows)
			SortRows(again)
			for i := range rows {
				if !rows[i].RWCounter.Equal(&again[i].RWCounter) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(32, gen.UInt8()),
		gen.SliceOfN(32, gen.UInt16()),
	))
	properties.Property("built write sequences validate against their own oracle", prop.ForAll(
		func(addrs []uint8, values []uint8) bool {
			ops := make([]Operation, len(addrs))
			for i := range addrs {
				ops[i] = NewMemoryOp(uint64(i)+1, Write, 1, uint64(addrs[i]), values[i])
			}
			rows := BuildRows(ops, testChallenge)
			SortRows(rows)
			return ValidateRows(rows, MPTTableFromRows(rows), testChallenge) == nil
		},
		gen.SliceOfN(24, gen.UInt8()),
		gen.SliceOfN(24, gen.UInt8()),
	))
	properties.Property("address limbs always recombine", prop.ForAll(
		func(raw []uint8) bool {
			var addr common.Address
			copy(addr[:], raw)
			rows := BuildRows([]Operation{
				NewAccountOp(1, Read, addr, AccountNonce, fq(0), fq(0)),
			}, testChallenge)
			row := &rows[0]
			var acc, base, limbWeight fr.Element
			base.SetUint64(1 << 16)
			limbWeight.SetOne()
			for i := 0; i < AddressLimbCount; i++ {
				var term fr.Element
				term.Mul(&row.AddressLimbs[i], &limbWeight)
				acc.Add(&acc, &term)
				limbWeight.Mul(&limbWeight, &base)
			}
			return acc.Equal(row.Address())
		},
		gen.SliceOfN(20, gen.UInt8()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
