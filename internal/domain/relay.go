package domain

import "github.com/ethereum/go-ethereum/common"

// RelayState is the lifecycle of a single-use relay
type RelayState string

const (
	RelayUnspawned RelayState = ""
	RelaySpawned   RelayState = "Spawned"
	RelayDelegated RelayState = "Delegated"
	RelayConsumed  RelayState = "Consumed"
)

// RelayInstance is a relay owned by exactly one request
type RelayInstance struct {
	Address common.Address
	Salt    common.Hash
	State   RelayState
}

// Target is where the relay's one creation lands
func (r *RelayInstance) Target() common.Address {
	return DeriveNonceBased(r.Address, 1)
}
