package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Config source tracking
	ConfigSource string // path of xfactory.toml, empty when absent

	// Resolved configurations
	Factory  FactoryConfig
	Presign  PresignConfig
	Networks map[string]*Network
	// SimulationChains are the chain IDs simulated when none are given
	SimulationChains []uint64
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// FactoryConfig describes how the factory is installed on a network
type FactoryConfig struct {
	// Deployer is the account whose first creation is the factory
	Deployer common.Address
	// InitCode is the factory's creation payload
	InitCode []byte
	// Address is where the factory is expected to live on every network
	Address common.Address
}

// PresignConfig holds the parameters of the offline factory deployment transaction
type PresignConfig struct {
	GasLimit     uint64
	GasPriceGwei uint64
	PrivateKey   string //nolint:gosec // resolved from an env var reference
	OutputDir    string
}
