package state

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Operation is the logical, pre-decomposition form of one state access as
// produced by the execution layer. The constructors below pin the key slots a
// target does not use to zero; the Builder derives the decomposed Row.
type Operation struct {
	RWCounter  uint64
	RW         RW
	Tag        Tag
	ID         uint64
	Address    *uint256.Int
	FieldTag   uint64
	StorageKey *uint256.Int
	Value      fr.Element
	// CommittedValue is only set by the Storage and Account constructors.
	CommittedValue fr.Element
}

// NewStartOp returns the sentinel padding operation that leads the table.
func NewStartOp() Operation {
	return Operation{Tag: TagStart}
}

// NewMemoryOp records a byte read or written at a memory address of a call.
//
// The yellow paper allows memory addresses of up to 256 bits, but the gas
// cost of memory operations is quadratic in the maximum address touched, so
// every reachable address fits in 32 bits until the gas limit exceeds 3.6e16.
func NewMemoryOp(rwCounter uint64, rw RW, callID, memAddr uint64, value byte) Operation {
	var v fr.Element
	v.SetUint64(uint64(value))
	return Operation{
		RWCounter: rwCounter,
		RW:        rw,
		Tag:       TagMemory,
		ID:        callID,
		Address:   uint256.NewInt(memAddr),
		Value:     v,
	}
}

// NewStackOp records a word read or written at a stack position of a call.
// The address key carries the stack pointer.
func NewStackOp(rwCounter uint64, rw RW, callID, stackPtr uint64, value fr.Element) Operation {
	return Operation{
		RWCounter: rwCounter,
		RW:        rw,
		Tag:       TagStack,
		ID:        callID,
		Address:   uint256.NewInt(stackPtr),
		Value:     value,
	}
}

// NewStorageOp records an access to a contract storage slot.
// committedValue is the slot value at the start of the enclosing transaction.
func NewStorageOp(rwCounter uint64, rw RW, txID uint64, addr common.Address, key *uint256.Int, value, committedValue fr.Element) Operation {
	return Operation{
		RWCounter:      rwCounter,
		RW:             rw,
		Tag:            TagStorage,
		ID:             txID,
		Address:        new(uint256.Int).SetBytes(addr[:]),
		StorageKey:     key,
		Value:          value,
		CommittedValue: committedValue,
	}
}

// NewCallContextOp records an access to a call context attribute.
func NewCallContextOp(rwCounter uint64, rw RW, callID uint64, fieldTag CallContextFieldTag, value fr.Element) Operation {
	return Operation{
		RWCounter: rwCounter,
		RW:        rw,
		Tag:       TagCallContext,
		ID:        callID,
		FieldTag:  uint64(fieldTag),
		Value:     value,
	}
}

// NewAccountOp records an access to an account attribute.
// committedValue is the attribute value at the start of the enclosing block.
func NewAccountOp(rwCounter uint64, rw RW, addr common.Address, fieldTag AccountFieldTag, value, committedValue fr.Element) Operation {
	return Operation{
		RWCounter:      rwCounter,
		RW:             rw,
		Tag:            TagAccount,
		Address:        new(uint256.Int).SetBytes(addr[:]),
		FieldTag:       uint64(fieldTag),
		Value:          value,
		CommittedValue: committedValue,
	}
}

// NewTxRefundOp records an access to the transaction gas refund counter.
func NewTxRefundOp(rwCounter uint64, rw RW, txID uint64, value fr.Element) Operation {
	return Operation{
		RWCounter: rwCounter,
		RW:        rw,
		Tag:       TagTxRefund,
		ID:        txID,
		Value:     value,
	}
}

// NewTxAccessListAccountOp records an access-list membership flag for an
// account within a transaction.
func NewTxAccessListAccountOp(rwCounter uint64, rw RW, txID uint64, addr common.Address, value fr.Element) Operation {
	return Operation{
		RWCounter: rwCounter,
		RW:        rw,
		Tag:       TagTxAccessListAccount,
		ID:        txID,
		Address:   new(uint256.Int).SetBytes(addr[:]),
		Value:     value,
	}
}

// NewTxAccessListAccountStorageOp records an access-list membership flag for
// a storage slot within a transaction.
func NewTxAccessListAccountStorageOp(rwCounter uint64, rw RW, txID uint64, addr common.Address, key *uint256.Int, value fr.Element) Operation {
	return Operation{
		RWCounter:  rwCounter,
		RW:         rw,
		Tag:        TagTxAccessListAccountStorage,
		ID:         txID,
		Address:    new(uint256.Int).SetBytes(addr[:]),
		StorageKey: key,
		Value:      value,
	}
}

// NewAccountDestructedOp records the destruction flag of an account.
func NewAccountDestructedOp(rwCounter uint64, rw RW, addr common.Address, value fr.Element) Operation {
	return Operation{
		RWCounter: rwCounter,
		RW:        rw,
		Tag:       TagAccountDestructed,
		Address:   new(uint256.Int).SetBytes(addr[:]),
		Value:     value,
	}
}

// NewTxLogOp records a log write. The address key carries the log id and the
// storage key the index within the selected log field.
func NewTxLogOp(rwCounter uint64, rw RW, txID, logID uint64, fieldTag TxLogFieldTag, index uint64, value fr.Element) Operation {
	return Operation{
		RWCounter:  rwCounter,
		RW:         rw,
		Tag:        TagTxLog,
		ID:         txID,
		Address:    uint256.NewInt(logID),
		FieldTag:   uint64(fieldTag),
		StorageKey: uint256.NewInt(index),
		Value:      value,
	}
}

// NewTxReceiptOp records an access to a receipt attribute of a transaction.
func NewTxReceiptOp(rwCounter uint64, rw RW, txID uint64, fieldTag TxReceiptFieldTag, value fr.Element) Operation {
	return Operation{
		RWCounter: rwCounter,
		RW:        rw,
		Tag:       TagTxReceipt,
		ID:        txID,
		FieldTag:  uint64(fieldTag),
		Value:     value,
	}
}
