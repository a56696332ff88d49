package abi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DecodedInput is one named argument of a decoded call
type DecodedInput struct {
	Name  string
	Type  string
	Value any
}

// DecodedCall is a human-readable factory call
type DecodedCall struct {
	Method string
	Inputs []DecodedInput
}

// DecodeCall decodes factory calldata by selector
func (c *Codec) DecodeCall(calldata []byte) (*DecodedCall, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(calldata))
	}

	method, err := c.abi.MethodById(calldata[:4])
	if err != nil {
		return nil, err
	}

	decoded := &DecodedCall{Method: method.RawName}
	values, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method.Sig, err)
	}
	for i, input := range method.Inputs {
		if i < len(values) {
			decoded.Inputs = append(decoded.Inputs, DecodedInput{
				Name:  input.Name,
				Type:  input.Type.String(),
				Value: values[i],
			})
		}
	}
	return decoded, nil
}

// FormatCompact renders the call as method(name: value, ...)
func (dc *DecodedCall) FormatCompact() string {
	args := make([]string, 0, len(dc.Inputs))
	for _, input := range dc.Inputs {
		args = append(args, fmt.Sprintf("%s: %s", input.Name, FormatValue(input.Value, input.Type)))
	}
	return fmt.Sprintf("%s(%s)", dc.Method, strings.Join(args, ", "))
}

// FormatValue formats a decoded value for human display
func FormatValue(value any, valueType string) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case *big.Int:
		return v.String()
	case []byte:
		if len(v) == 0 {
			return "0x"
		}
		if len(v) <= 32 {
			return hexutil.Encode(v)
		}
		// Truncate long byte arrays
		return fmt.Sprintf("%s...(%d bytes)", hexutil.Encode(v[:16]), len(v))
	case [32]byte:
		return hexutil.Encode(v[:])
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		if strings.HasPrefix(valueType, "(") {
			if jsonBytes, err := json.Marshal(v); err == nil {
				return string(jsonBytes)
			}
		}
		return fmt.Sprintf("%v", v)
	}
}
