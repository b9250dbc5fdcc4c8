package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexToBytes decodes a hex string with or without a 0x prefix.
func HexToBytes(hexStr string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
}

// HexBytes is a byte slice that marshals to and from 0x-prefixed JSON hex
// strings, the encoding the trace fixtures use.
type HexBytes []byte

func (hb HexBytes) String() string {
	return "0x" + hex.EncodeToString(hb)
}

func (hb HexBytes) MarshalJSON() ([]byte, error) {
	s := hb.String()
	jbz := make([]byte, len(s)+2)
	jbz[0] = '"'
	copy(jbz[1:], s)
	jbz[len(jbz)-1] = '"'
	return jbz, nil
}

func (hb *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid hex string: %s", data)
	}

	bz, err := HexToBytes(string(data[1 : len(data)-1]))
	if err != nil {
		return fmt.Errorf("invalid hex string %s: %w", data, err)
	}
	*hb = bz
	return nil
}
