package models

import (
	"fmt"
	"strings"
	"time"
)

// FactoryDeployment records the factory's presence on one network
type FactoryDeployment struct {
	Name    string `json:"name"`
	ChainID uint64 `json:"chainId"`
	// URL points at the factory on the network's block explorer
	URL     string `json:"url"`
	Address string `json:"address"`

	AddedAt time.Time `json:"addedAt,omitempty"`
}

// Validate checks the required fields
func (d *FactoryDeployment) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("deployment name is required")
	}
	if d.ChainID == 0 {
		return fmt.Errorf("chain ID is required")
	}
	if d.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}

// String returns a short description
func (d *FactoryDeployment) String() string {
	return fmt.Sprintf("%s (%d)", d.Name, d.ChainID)
}

var testnetMarkers = []string{"testnet", "sepolia", "goerli", "holesky", "hoodi", "devnet", "fuji", "amoy", "chiado"}

// IsTestnet guesses from the network name whether it is a test network
func (d *FactoryDeployment) IsTestnet() bool {
	name := strings.ToLower(d.Name)
	for _, marker := range testnetMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
