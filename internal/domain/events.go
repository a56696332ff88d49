package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventTypeContractCreation      EventType = "ContractCreation"
	EventTypeRelayContractCreation EventType = "RelayContractCreation"
)

// EventRecord is a notification emitted by a successful request. Salt is
// nil for nonce-based creations.
type EventRecord struct {
	Type    EventType      `json:"type"`
	Address common.Address `json:"address"`
	Salt    *common.Hash   `json:"salt,omitempty"`
}

// ContractCreated builds a ContractCreation event
func ContractCreated(addr common.Address, salt *common.Hash) EventRecord {
	return EventRecord{Type: EventTypeContractCreation, Address: addr, Salt: salt}
}

// RelayCreated builds a RelayContractCreation event
func RelayCreated(relay common.Address, salt common.Hash) EventRecord {
	return EventRecord{Type: EventTypeRelayContractCreation, Address: relay, Salt: &salt}
}

func (e EventRecord) String() string {
	if e.Salt == nil {
		return fmt.Sprintf("%s(%s)", e.Type, e.Address.Hex())
	}
	return fmt.Sprintf("%s(%s, %s)", e.Type, e.Address.Hex(), e.Salt.Hex())
}
