package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// SimulationPlan is a sequence of factory requests replayed on every
// listed chain
type SimulationPlan struct {
	Chains   []uint64      `yaml:"chains"`
	Accounts []PlanAccount `yaml:"accounts"`
	Steps    []PlanStep    `yaml:"steps"`
}

// PlanAccount pre-funds an account on every simulated chain
type PlanAccount struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// PlanStep is one factory operation. Numeric values are decimal strings,
// byte strings are 0x-prefixed hex. A step names either an Operation with
// its arguments, or ABI encoded Calldata.
type PlanStep struct {
	Name              string `yaml:"name"`
	Operation         string `yaml:"operation"`
	Caller            string `yaml:"caller"`
	Value             string `yaml:"value,omitempty"`
	Salt              string `yaml:"salt,omitempty"`
	InitCode          string `yaml:"init_code,omitempty"`
	InitCall          string `yaml:"init_call,omitempty"`
	ConstructorAmount string `yaml:"constructor_amount,omitempty"`
	InitCallAmount    string `yaml:"init_call_amount,omitempty"`
	Refund            string `yaml:"refund,omitempty"`
	Implementation    string `yaml:"implementation,omitempty"`
	Calldata          string `yaml:"calldata,omitempty"`
}

// RawCall is an ABI encoded call into the factory
type RawCall struct {
	Caller common.Address
	Value  *uint256.Int
	Data   []byte
}

var operations = map[string]struct {
	kind   RequestKind
	scheme Scheme
}{
	"deployCreate":         {KindDeploy, SchemeNonceBased},
	"deployCreateAndInit":  {KindDeployAndInit, SchemeNonceBased},
	"deployCreateClone":    {KindDeployClone, SchemeNonceBased},
	"deployCreate2":        {KindDeploy, SchemeSaltBased},
	"deployCreate2AndInit": {KindDeployAndInit, SchemeSaltBased},
	"deployCreate2Clone":   {KindDeployClone, SchemeSaltBased},
	"deployCreate3":        {KindDeploy, SchemeRelayIndirected},
	"deployCreate3AndInit": {KindDeployAndInit, SchemeRelayIndirected},
}

// ParseOperation maps a factory operation name to its request kind and scheme
func ParseOperation(name string) (RequestKind, Scheme, error) {
	op, ok := operations[name]
	if !ok {
		return "", "", fmt.Errorf("unknown operation %q", name)
	}
	return op.kind, op.scheme, nil
}

// OperationName is the inverse of ParseOperation
func OperationName(kind RequestKind, scheme Scheme) string {
	for name, op := range operations {
		if op.kind == kind && op.scheme == scheme {
			return name
		}
	}
	return ""
}

// Request converts the step into a factory request
func (s PlanStep) Request() (*DeploymentRequest, error) {
	kind, scheme, err := ParseOperation(s.Operation)
	if err != nil {
		return nil, err
	}

	caller, err := parseAddress("caller", s.Caller)
	if err != nil {
		return nil, err
	}
	req := &DeploymentRequest{Kind: kind, Scheme: scheme, Caller: caller}

	if req.Value, err = parseAmount("value", s.Value); err != nil {
		return nil, err
	}

	if s.Salt != "" {
		if scheme == SchemeNonceBased {
			return nil, fmt.Errorf("salt: %s does not take a salt", s.Operation)
		}
		raw, err := hexutil.Decode(s.Salt)
		if err != nil || len(raw) != common.HashLength {
			return nil, fmt.Errorf("salt: expected 32 byte hex, got %q", s.Salt)
		}
		salt := common.BytesToHash(raw)
		req.Salt = &salt
	}

	if kind == KindDeployClone {
		if s.Implementation == "" {
			return nil, fmt.Errorf("implementation: required for %s", s.Operation)
		}
		impl, err := parseAddress("implementation", s.Implementation)
		if err != nil {
			return nil, err
		}
		req.Implementation = &impl
	} else {
		if req.InitCode, err = parseHex("init_code", s.InitCode); err != nil {
			return nil, err
		}
		if len(req.InitCode) == 0 {
			return nil, fmt.Errorf("init_code: required for %s", s.Operation)
		}
	}

	if kind != KindDeploy {
		if req.InitCall, err = parseHex("init_call", s.InitCall); err != nil {
			return nil, err
		}
	}

	if kind == KindDeployAndInit {
		values := Values{}
		if values.ConstructorAmount, err = parseAmount("constructor_amount", s.ConstructorAmount); err != nil {
			return nil, err
		}
		if values.InitCallAmount, err = parseAmount("init_call_amount", s.InitCallAmount); err != nil {
			return nil, err
		}
		req.Values = &values

		if s.Refund != "" {
			refund, err := parseAddress("refund", s.Refund)
			if err != nil {
				return nil, err
			}
			req.RefundAddress = &refund
		}
	}

	return req, nil
}

// IsRawCall reports whether the step carries calldata instead of an operation
func (s PlanStep) IsRawCall() bool {
	return s.Calldata != ""
}

// Call converts a calldata step into a raw call
func (s PlanStep) Call() (*RawCall, error) {
	if s.Operation != "" {
		return nil, fmt.Errorf("calldata: cannot be combined with operation %s", s.Operation)
	}

	caller, err := parseAddress("caller", s.Caller)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount("value", s.Value)
	if err != nil {
		return nil, err
	}
	data, err := parseHex("calldata", s.Calldata)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata: missing function selector")
	}
	return &RawCall{Caller: caller, Value: value, Data: data}, nil
}

// Funding parses the account's address and balance
func (a PlanAccount) Funding() (common.Address, *uint256.Int, error) {
	addr, err := parseAddress("address", a.Address)
	if err != nil {
		return common.Address{}, nil, err
	}
	balance, err := parseAmount("balance", a.Balance)
	if err != nil {
		return common.Address{}, nil, err
	}
	return addr, balance, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: %q: %w", field, s, ErrInvalidAddress)
	}
	return common.HexToAddress(s), nil
}

// parseAmount reads a decimal or 0x-prefixed amount, empty is zero
func parseAmount(field, s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(uint256.Int), nil
	}
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") {
		v, err = uint256.FromHex(s)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: invalid amount %q: %w", field, s, err)
	}
	return v, nil
}

func parseHex(field, s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return b, nil
}
