package abi

import (
	"bytes"
	"errors"
	"fmt"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/xfactory/internal/adapters/abi/bindings"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// ABI names of the events. The salt-less ContractCreation overload is
// registered under the disambiguated name.
const (
	eventContractCreation         = "ContractCreation"
	eventContractCreationSaltless = "ContractCreation0"
	eventRelayContractCreation    = "RelayContractCreation"
)

var errUnknownEvent = errors.New("unknown factory event")

// Codec translates factory errors and events to and from their ABI encoding
type Codec struct {
	abi *ethabi.ABI
}

// NewCodec parses the factory ABI
func NewCodec() (*Codec, error) {
	parsed, err := bindings.XFactoryMetaData.ParseABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	return &Codec{abi: parsed}, nil
}

// FactoryABI implements usecase.ABIProvider
func (c *Codec) FactoryABI() (*ethabi.ABI, error) {
	return c.abi, nil
}

// EncodeError returns the revert payload for a factory error: the 4 byte
// selector followed by the emitter and, for kinds that carry it, the
// callee's revert data
func (c *Codec) EncodeError(fe *domain.FactoryError) ([]byte, error) {
	abiErr, ok := c.abi.Errors[string(fe.Kind)]
	if !ok {
		return nil, fmt.Errorf("error kind %q is not part of the factory ABI", fe.Kind)
	}

	var args []any
	if fe.Kind.CarriesRevertData() {
		revertData := fe.RevertData
		if revertData == nil {
			revertData = []byte{}
		}
		args = []any{fe.Emitter, revertData}
	} else {
		args = []any{fe.Emitter}
	}

	packed, err := abiErr.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", fe.Kind, err)
	}
	return append(common.CopyBytes(abiErr.ID[:4]), packed...), nil
}

// DecodeError recovers a factory error from a revert payload. The stage is
// not part of the encoding and is left empty.
func (c *Codec) DecodeError(data []byte) (*domain.FactoryError, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("revert payload too short: %d bytes", len(data))
	}

	for _, kind := range domain.AllErrorKinds {
		abiErr, ok := c.abi.Errors[string(kind)]
		if !ok || !bytes.Equal(abiErr.ID[:4], data[:4]) {
			continue
		}

		values, err := abiErr.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, fmt.Errorf("failed to unpack %s: %w", kind, err)
		}
		emitter, ok := values[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("unexpected emitter type %T", values[0])
		}

		fe := &domain.FactoryError{Kind: kind, Emitter: emitter}
		if kind.CarriesRevertData() && len(values) > 1 {
			if revertData, ok := values[1].([]byte); ok && len(revertData) > 0 {
				fe.RevertData = revertData
			}
		}
		return fe, nil
	}

	return nil, fmt.Errorf("unknown error selector 0x%x", data[:4])
}

// EncodeEvent renders an event record as the log the factory emits
func (c *Codec) EncodeEvent(factory common.Address, event domain.EventRecord) (*types.Log, error) {
	name, err := eventName(event)
	if err != nil {
		return nil, err
	}

	topics := []common.Hash{
		c.abi.Events[name].ID,
		common.BytesToHash(event.Address.Bytes()),
	}
	if event.Salt != nil {
		topics = append(topics, *event.Salt)
	}

	return &types.Log{
		Address: factory,
		Topics:  topics,
		Data:    []byte{},
	}, nil
}

// EncodeEvents renders every record in emission order
func (c *Codec) EncodeEvents(factory common.Address, events []domain.EventRecord) ([]*types.Log, error) {
	logs := make([]*types.Log, 0, len(events))
	for _, event := range events {
		log, err := c.EncodeEvent(factory, event)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// DecodeLog recovers an event record from a factory log
func (c *Codec) DecodeLog(log types.Log) (domain.EventRecord, error) {
	if len(log.Topics) == 0 {
		return domain.EventRecord{}, fmt.Errorf("no topics in log")
	}

	for _, name := range []string{eventContractCreation, eventContractCreationSaltless, eventRelayContractCreation} {
		event := c.abi.Events[name]
		if log.Topics[0] != event.ID {
			continue
		}

		var indexed ethabi.Arguments
		for _, arg := range event.Inputs {
			if arg.Indexed {
				indexed = append(indexed, arg)
			}
		}
		if len(log.Topics)-1 != len(indexed) {
			return domain.EventRecord{}, fmt.Errorf("%s: expected %d indexed topics, got %d", name, len(indexed), len(log.Topics)-1)
		}

		params := make(map[string]any)
		if err := ethabi.ParseTopicsIntoMap(params, indexed, log.Topics[1:]); err != nil {
			return domain.EventRecord{}, fmt.Errorf("failed to parse topics: %w", err)
		}

		switch name {
		case eventRelayContractCreation:
			relay, _ := params["relay"].(common.Address)
			salt, _ := params["salt"].([32]byte)
			return domain.RelayCreated(relay, salt), nil
		case eventContractCreation:
			addr, _ := params["newContract"].(common.Address)
			raw, _ := params["salt"].([32]byte)
			salt := common.Hash(raw)
			return domain.ContractCreated(addr, &salt), nil
		default:
			addr, _ := params["newContract"].(common.Address)
			return domain.ContractCreated(addr, nil), nil
		}
	}

	return domain.EventRecord{}, errUnknownEvent
}

func eventName(event domain.EventRecord) (string, error) {
	switch event.Type {
	case domain.EventTypeContractCreation:
		if event.Salt == nil {
			return eventContractCreationSaltless, nil
		}
		return eventContractCreation, nil
	case domain.EventTypeRelayContractCreation:
		if event.Salt == nil {
			return "", fmt.Errorf("relay event without salt")
		}
		return eventRelayContractCreation, nil
	default:
		return "", fmt.Errorf("%w: %s", errUnknownEvent, event.Type)
	}
}
