package checker

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/kysee/zkevm-state/state"
	"github.com/kysee/zkevm-state/types"
)

// Trace is the JSON fixture format for an access trace handed over by the
// execution layer: the per-proof RLC challenge plus the ordered operation
// list.
type Trace struct {
	Challenge types.HexBytes `json:"challenge"`
	Ops       []TraceOp      `json:"ops"`
}

// TraceOp is one logical access in the fixture. Op selects the target; only
// the fields that target uses are expected to be present.
type TraceOp struct {
	Op        string `json:"op"`
	RWCounter uint64 `json:"rw_counter"`
	Write     bool   `json:"write"`

	CallID   uint64         `json:"call_id,omitempty"`
	TxID     uint64         `json:"tx_id,omitempty"`
	LogID    uint64         `json:"log_id,omitempty"`
	Address  common.Address `json:"address,omitempty"`
	MemAddr  uint64         `json:"mem_addr,omitempty"`
	StackPtr uint64         `json:"stack_ptr,omitempty"`
	FieldTag uint64         `json:"field_tag,omitempty"`
	Index    uint64         `json:"index,omitempty"`

	Key       types.HexBytes `json:"key,omitempty"`
	Value     types.HexBytes `json:"value,omitempty"`
	Committed types.HexBytes `json:"committed_value,omitempty"`
}

// ChallengeElement decodes the per-proof challenge.
func (t *Trace) ChallengeElement() (fr.Element, error) {
	if len(t.Challenge) == 0 {
		return fr.Element{}, fmt.Errorf("trace carries no challenge")
	}
	return frFromBytes(t.Challenge), nil
}

// Operations decodes the fixture into the typed operation sequence the row
// builder consumes, preserving order.
func (t *Trace) Operations() ([]state.Operation, error) {
	ops := make([]state.Operation, 0, len(t.Ops))
	for i, op := range t.Ops {
		decoded, err := op.Operation()
		if err != nil {
			return nil, fmt.Errorf("trace op %d: %w", i, err)
		}
		ops = append(ops, decoded)
	}
	return ops, nil
}

func (op *TraceOp) Operation() (state.Operation, error) {
	rw := state.Read
	if op.Write {
		rw = state.Write
	}
	value := frFromBytes(op.Value)
	committed := frFromBytes(op.Committed)

	switch op.Op {
	case "start":
		return state.NewStartOp(), nil
	case "memory":
		if len(op.Value) > 1 {
			return state.Operation{}, fmt.Errorf("memory value %s is wider than a byte", op.Value)
		}
		var b byte
		if len(op.Value) == 1 {
			b = op.Value[0]
		}
		return state.NewMemoryOp(op.RWCounter, rw, op.CallID, op.MemAddr, b), nil
	case "stack":
		return state.NewStackOp(op.RWCounter, rw, op.CallID, op.StackPtr, value), nil
	case "storage":
		return state.NewStorageOp(op.RWCounter, rw, op.TxID, op.Address, keyFromBytes(op.Key), value, committed), nil
	case "call_context":
		return state.NewCallContextOp(op.RWCounter, rw, op.CallID, state.CallContextFieldTag(op.FieldTag), value), nil
	case "account":
		return state.NewAccountOp(op.RWCounter, rw, op.Address, state.AccountFieldTag(op.FieldTag), value, committed), nil
	case "tx_refund":
		return state.NewTxRefundOp(op.RWCounter, rw, op.TxID, value), nil
	case "tx_access_list_account":
		return state.NewTxAccessListAccountOp(op.RWCounter, rw, op.TxID, op.Address, value), nil
	case "tx_access_list_account_storage":
		return state.NewTxAccessListAccountStorageOp(op.RWCounter, rw, op.TxID, op.Address, keyFromBytes(op.Key), value), nil
	case "account_destructed":
		return state.NewAccountDestructedOp(op.RWCounter, rw, op.Address, value), nil
	case "tx_log":
		return state.NewTxLogOp(op.RWCounter, rw, op.TxID, op.LogID, state.TxLogFieldTag(op.FieldTag), op.Index, value), nil
	case "tx_receipt":
		return state.NewTxReceiptOp(op.RWCounter, rw, op.TxID, state.TxReceiptFieldTag(op.FieldTag), value), nil
	default:
		return state.Operation{}, fmt.Errorf("unknown op %q", op.Op)
	}
}

// frFromBytes interprets big-endian bytes as a field element. An empty slice
// is zero.
func frFromBytes(b []byte) fr.Element {
	var e fr.Element
	e.SetBytes(b)
	return e
}

func keyFromBytes(b []byte) *uint256.Int {
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	return new(uint256.Int).SetBytes(b)
}
