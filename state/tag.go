package state

// Tag selects the state target of a row and is the most significant component
// of the row sort key, so all accesses to one kind of state are grouped
// together in the sorted table.
//
// Start is used both as padding before the rest of the operations and to
// discard constraints against the previous row that would otherwise wrap
// around the end of the table.
type Tag uint64

const (
	TagStart Tag = iota + 1
	TagMemory
	TagStack
	TagStorage
	TagCallContext
	TagAccount
	TagTxRefund
	TagTxAccessListAccount
	TagTxAccessListAccountStorage
	TagAccountDestructed
	TagTxLog
	TagTxReceipt
)

func (t Tag) String() string {
	switch t {
	case TagStart:
		return "Start"
	case TagMemory:
		return "Memory"
	case TagStack:
		return "Stack"
	case TagStorage:
		return "Storage"
	case TagCallContext:
		return "CallContext"
	case TagAccount:
		return "Account"
	case TagTxRefund:
		return "TxRefund"
	case TagTxAccessListAccount:
		return "TxAccessListAccount"
	case TagTxAccessListAccountStorage:
		return "TxAccessListAccountStorage"
	case TagAccountDestructed:
		return "AccountDestructed"
	case TagTxLog:
		return "TxLog"
	case TagTxReceipt:
		return "TxReceipt"
	default:
		return "Tag(?)"
	}
}

// RW distinguishes read accesses from write accesses.
type RW int

const (
	Read RW = iota
	Write
)

// AccountFieldTag selects which account attribute an Account row touches. Its
// value doubles as the membership-oracle target for that row.
type AccountFieldTag uint64

const (
	AccountNonce AccountFieldTag = iota + 1
	AccountBalance
	AccountCodeHash
)

// CallContextFieldTag selects which call attribute a CallContext row touches.
type CallContextFieldTag uint64

const (
	CallContextRwCounterEndOfReversion CallContextFieldTag = iota + 1
	CallContextCallerID
	CallContextTxID
	CallContextDepth
	CallContextCallerAddress
	CallContextCalleeAddress
	CallContextCallDataOffset
	CallContextCallDataLength
	CallContextReturnDataOffset
	CallContextReturnDataLength
	CallContextValue
	CallContextIsSuccess
	CallContextIsPersistent
	CallContextIsStatic
	CallContextLastCalleeID
	CallContextLastCalleeReturnDataOffset
	CallContextLastCalleeReturnDataLength
	CallContextIsRoot
	CallContextIsCreate
	CallContextCodeSource
	CallContextProgramCounter
	CallContextStackPointer
	CallContextGasLeft
	CallContextMemorySize
)

// TxLogFieldTag selects which part of a log record a TxLog row carries.
type TxLogFieldTag uint64

const (
	TxLogAddress TxLogFieldTag = iota + 1
	TxLogTopic
	TxLogData
)

// TxReceiptFieldTag selects which receipt attribute a TxReceipt row touches.
type TxReceiptFieldTag uint64

const (
	TxReceiptPostStateOrStatus TxReceiptFieldTag = iota + 1
	TxReceiptCumulativeGasUsed
	TxReceiptLogLength
)

// MPTTag is the target field of a membership-oracle entry. The account
// targets share their values with AccountFieldTag because Account rows use
// the field tag itself as the lookup target.
type MPTTag uint64

const (
	MPTNonce    MPTTag = MPTTag(AccountNonce)
	MPTBalance  MPTTag = MPTTag(AccountBalance)
	MPTCodeHash MPTTag = MPTTag(AccountCodeHash)
	MPTStorage  MPTTag = 4
)
