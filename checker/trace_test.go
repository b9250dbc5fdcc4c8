package checker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kysee/zkevm-state/state"
)

func TestTraceDecode(t *testing.T) {
	raw := `{
		"challenge": "0x0102",
		"ops": [
			{"op": "start", "rw_counter": 0},
			{"op": "memory", "rw_counter": 1, "write": true, "call_id": 1, "mem_addr": 16, "value": "0x2a"},
			{"op": "stack", "rw_counter": 2, "write": true, "call_id": 1, "stack_ptr": 1023, "value": "0xff00"},
			{"op": "storage", "rw_counter": 3, "write": true, "tx_id": 1,
			 "address": "0x1234567890abcdef1234567890abcdef12345678",
			 "key": "0x05", "value": "0x07", "committed_value": "0x03"},
			{"op": "tx_receipt", "rw_counter": 4, "write": false, "tx_id": 1, "field_tag": 1, "value": "0x01"}
		]
	}`

	var trace Trace
	require.NoError(t, json.Unmarshal([]byte(raw), &trace))

	challenge, err := trace.ChallengeElement()
	require.NoError(t, err)
	require.True(t, challenge.IsUint64())
	require.EqualValues(t, 0x0102, challenge.Uint64())

	ops, err := trace.Operations()
	require.NoError(t, err)
	require.Len(t, ops, 5)

	require.Equal(t, state.TagStart, ops[0].Tag)
	require.Equal(t, state.TagMemory, ops[1].Tag)
	require.Equal(t, state.Write, ops[1].RW)
	require.EqualValues(t, 1, ops[1].ID)
	require.True(t, ops[1].Value.IsUint64())
	require.EqualValues(t, 0x2a, ops[1].Value.Uint64())

	require.Equal(t, state.TagStorage, ops[3].Tag)
	require.EqualValues(t, 5, ops[3].StorageKey.Uint64())
	require.True(t, ops[3].CommittedValue.IsUint64())
	require.EqualValues(t, 3, ops[3].CommittedValue.Uint64())

	require.Equal(t, state.TagTxReceipt, ops[4].Tag)
	require.EqualValues(t, 1, ops[4].FieldTag)
}

func TestTraceDecodeUnknownOp(t *testing.T) {
	trace := Trace{Ops: []TraceOp{{Op: "selfdestruct", RWCounter: 1}}}
	_, err := trace.Operations()
	require.ErrorContains(t, err, "unknown op")
	require.ErrorContains(t, err, "trace op 0")
}

func TestTraceDecodeMemoryValueTooWide(t *testing.T) {
	trace := Trace{Ops: []TraceOp{{
		Op:        "memory",
		RWCounter: 1,
		Write:     true,
		CallID:    1,
		Value:     []byte{0x01, 0x02},
	}}}
	_, err := trace.Operations()
	require.ErrorContains(t, err, "wider than a byte")
}

func TestTraceMissingChallenge(t *testing.T) {
	var trace Trace
	_, err := trace.ChallengeElement()
	require.Error(t, err, "a fixture without a challenge must be refused")
}
