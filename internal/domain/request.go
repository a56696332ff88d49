package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Scheme selects how the target address is derived
type Scheme string

const (
	SchemeNonceBased      Scheme = "CREATE"
	SchemeSaltBased       Scheme = "CREATE2"
	SchemeRelayIndirected Scheme = "CREATE3"
)

// ParseScheme accepts the scheme name or its opcode-style alias
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(s) {
	case "create", "nonce", "nonce-based":
		return SchemeNonceBased, nil
	case "create2", "salt", "salt-based":
		return SchemeSaltBased, nil
	case "create3", "relay", "relay-indirected":
		return SchemeRelayIndirected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
}

// UsesSalt reports whether derivation under the scheme consumes a salt
func (s Scheme) UsesSalt() bool {
	return s == SchemeSaltBased || s == SchemeRelayIndirected
}

// Values splits the attached value between the constructor and the init call
type Values struct {
	ConstructorAmount *uint256.Int
	InitCallAmount    *uint256.Int
}

// Total returns the sum and whether it overflowed 256 bits
func (v Values) Total() (*uint256.Int, bool) {
	return new(uint256.Int).AddOverflow(orZero(v.ConstructorAmount), orZero(v.InitCallAmount))
}

// RequestKind selects the orchestrator operation
type RequestKind string

const (
	KindDeploy        RequestKind = "deploy"
	KindDeployAndInit RequestKind = "deployAndInit"
	KindDeployClone   RequestKind = "deployClone"
)

// DeploymentRequest is one caller-initiated deployment
type DeploymentRequest struct {
	Kind   RequestKind
	Scheme Scheme
	Caller common.Address
	// Value is the native value attached to the request
	Value    *uint256.Int
	InitCode []byte
	// Salt is nil when the caller omitted it; a salt is then generated.
	Salt           *common.Hash
	InitCall       []byte
	Values         *Values
	RefundAddress  *common.Address
	Implementation *common.Address
}

// AttachedValue returns Value, treating nil as zero
func (r *DeploymentRequest) AttachedValue() *uint256.Int {
	return orZero(r.Value)
}

// Refund returns the refund recipient, defaulting to the caller
func (r *DeploymentRequest) Refund() common.Address {
	if r.RefundAddress != nil {
		return *r.RefundAddress
	}
	return r.Caller
}

// RequestState tracks a request through the orchestrator
type RequestState string

const (
	StateValidating   RequestState = "Validating"
	StateCreating     RequestState = "Creating"
	StateInitializing RequestState = "Initializing"
	StateRefunding    RequestState = "Refunding"
	StateDone         RequestState = "Done"
	StateReverted     RequestState = "Reverted"
)

// DeploymentResult is the outcome of a successful request
type DeploymentResult struct {
	Address common.Address
	Scheme  Scheme
	// Salt is the effective salt after guarding, nil for nonce-based creations
	Salt   *common.Hash
	Relay  *common.Address
	Events []EventRecord
	State  RequestState
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
