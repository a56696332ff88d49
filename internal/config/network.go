package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

// ResolveNetwork finds a configured network by name or decimal chain ID
func ResolveNetwork(networks map[string]*config.Network, nameOrChainID string) (*config.Network, error) {
	if network, ok := networks[nameOrChainID]; ok {
		return network, nil
	}
	if network, ok := networks[strings.ToLower(nameOrChainID)]; ok {
		return network, nil
	}

	if chainID, err := strconv.ParseUint(nameOrChainID, 10, 64); err == nil {
		if network, ok := NetworkByChainID(networks, chainID); ok {
			return network, nil
		}
	}

	names := lo.Keys(networks)
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("network %q: %w (no networks configured in %s)", nameOrChainID, domain.ErrNotFound, ProjectFile)
	}
	return nil, fmt.Errorf("network %q: %w (configured: %s)", nameOrChainID, domain.ErrNotFound, strings.Join(names, ", "))
}

// NetworkByChainID returns the first network, by name, with chainID
func NetworkByChainID(networks map[string]*config.Network, chainID uint64) (*config.Network, bool) {
	names := lo.Keys(networks)
	sort.Strings(names)
	for _, name := range names {
		if networks[name].ChainID == chainID {
			return networks[name], true
		}
	}
	return nil, false
}

// ParseChainIDs reads a list of chain IDs or network names
func ParseChainIDs(networks map[string]*config.Network, values []string) ([]uint64, error) {
	chainIDs := make([]uint64, 0, len(values))
	for _, value := range values {
		if chainID, err := strconv.ParseUint(value, 10, 64); err == nil {
			if chainID == 0 {
				return nil, domain.ErrInvalidChainID
			}
			chainIDs = append(chainIDs, chainID)
			continue
		}
		network, err := ResolveNetwork(networks, value)
		if err != nil {
			return nil, err
		}
		chainIDs = append(chainIDs, network.ChainID)
	}
	return lo.Uniq(chainIDs), nil
}
