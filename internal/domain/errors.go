package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidChainID is returned when a chain ID is invalid
	ErrInvalidChainID = errors.New("invalid chain ID")

	// ErrNetworkMismatch is returned when network configurations don't match
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrSaltNotPermitted is returned when a salt names a permissioned sender other than the caller
	ErrSaltNotPermitted = errors.New("salt is reserved for another sender")

	// ErrSaltFlagUnspecified is returned when the protection flag byte is neither 0x00 nor 0x01
	ErrSaltFlagUnspecified = errors.New("salt protection flag is unspecified")

	// ErrRelayConsumed is returned when a relay is asked to create a second contract
	ErrRelayConsumed = errors.New("relay already consumed")

	// ErrUnknownScheme is returned for a derivation scheme the factory does not implement
	ErrUnknownScheme = errors.New("unknown derivation scheme")
)

// ErrorKind names one entry of the factory's error taxonomy. Kinds are
// comparable with errors.Is against a *FactoryError.
type ErrorKind string

const (
	FailedContractCreation       ErrorKind = "FailedContractCreation"
	FailedContractInitialisation ErrorKind = "FailedContractInitialisation"
	FailedEtherTransfer          ErrorKind = "FailedEtherTransfer"
	InvalidNonceValue            ErrorKind = "InvalidNonceValue"
	InvalidSalt                  ErrorKind = "InvalidSalt"
	InvalidValueSplit            ErrorKind = "InvalidValueSplit"
)

func (k ErrorKind) Error() string {
	return string(k)
}

// Class groups the kind into the phase of a request that produced it
func (k ErrorKind) Class() ErrorClass {
	switch k {
	case InvalidSalt, InvalidNonceValue, InvalidValueSplit:
		return ClassParameterValidation
	case FailedContractCreation:
		return ClassCreation
	case FailedContractInitialisation:
		return ClassInitialisation
	case FailedEtherTransfer:
		return ClassSettlement
	default:
		return ClassUnknown
	}
}

// CarriesRevertData reports whether the kind forwards the callee's revert payload
func (k ErrorKind) CarriesRevertData() bool {
	return k == FailedContractInitialisation || k == FailedEtherTransfer
}

// AllErrorKinds lists the taxonomy in declaration order
var AllErrorKinds = []ErrorKind{
	FailedContractCreation,
	FailedContractInitialisation,
	FailedEtherTransfer,
	InvalidNonceValue,
	InvalidSalt,
	InvalidValueSplit,
}

type ErrorClass string

const (
	ClassParameterValidation ErrorClass = "parameter-validation"
	ClassCreation            ErrorClass = "creation"
	ClassInitialisation      ErrorClass = "initialisation"
	ClassSettlement          ErrorClass = "settlement"
	ClassUnknown             ErrorClass = "unknown"
)

// Stage pins down which step of a request failed. The emitter alone cannot
// tell a relay spawn failure from a direct creation failure.
type Stage string

const (
	StageValidation    Stage = "validation"
	StageTarget        Stage = "target"
	StageRelaySpawn    Stage = "relay-spawn"
	StageRelayDelegate Stage = "relay-delegate"
	StageInit          Stage = "init"
	StageRefund        Stage = "refund"
)

// FactoryError is the single typed failure a request terminates with
type FactoryError struct {
	Kind       ErrorKind
	Emitter    common.Address
	RevertData []byte
	Stage      Stage
	// Cause is the underlying environment or validation error, if any.
	Cause error
}

func (e *FactoryError) Error() string {
	msg := fmt.Sprintf("%s(%s)", e.Kind, e.Emitter.Hex())
	if len(e.RevertData) > 0 {
		msg = fmt.Sprintf("%s(%s, 0x%x)", e.Kind, e.Emitter.Hex(), e.RevertData)
	}
	if e.Stage != "" {
		msg += " at " + string(e.Stage)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FactoryError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func (e *FactoryError) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind       ErrorKind      `json:"kind"`
		Class      ErrorClass     `json:"class"`
		Emitter    common.Address `json:"emitter"`
		Stage      Stage          `json:"stage,omitempty"`
		RevertData hexutil.Bytes  `json:"revertData,omitempty"`
		Cause      string         `json:"cause,omitempty"`
	}{
		Kind:       e.Kind,
		Class:      e.Kind.Class(),
		Emitter:    e.Emitter,
		Stage:      e.Stage,
		RevertData: e.RevertData,
	}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return json.Marshal(out)
}

// NewFactoryError builds a FactoryError, copying the revert payload
func NewFactoryError(kind ErrorKind, emitter common.Address, stage Stage, revertData []byte, cause error) *FactoryError {
	var data []byte
	if kind.CarriesRevertData() && len(revertData) > 0 {
		data = common.CopyBytes(revertData)
	}
	return &FactoryError{
		Kind:       kind,
		Emitter:    emitter,
		RevertData: data,
		Stage:      stage,
		Cause:      cause,
	}
}

// AsFactoryError extracts the FactoryError from err, if any
func AsFactoryError(err error) (*FactoryError, bool) {
	var fe *FactoryError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
