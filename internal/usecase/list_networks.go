package usecase

import (
	"context"
	"sort"

	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct{}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus is a configured network and whether the factory is
// registered on it
type NetworkStatus struct {
	Name       string                    `json:"name"`
	ChainID    uint64                    `json:"chainId"`
	RPCURL     string                    `json:"rpcUrl,omitempty"`
	Registered *models.FactoryDeployment `json:"registered,omitempty"`
}

// ListNetworks is a use case for listing configured networks
type ListNetworks struct {
	config *config.RuntimeConfig
	repo   DeploymentRepository
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(cfg *config.RuntimeConfig, repo DeploymentRepository) *ListNetworks {
	return &ListNetworks{
		config: cfg,
		repo:   repo,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	deployments, err := uc.repo.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}
	registered := make(map[uint64]*models.FactoryDeployment, len(deployments))
	for _, dep := range deployments {
		registered[dep.ChainID] = dep
	}

	networks := make([]NetworkStatus, 0, len(uc.config.Networks))
	for name, network := range uc.config.Networks {
		networks = append(networks, NetworkStatus{
			Name:       name,
			ChainID:    network.ChainID,
			RPCURL:     network.RPCURL,
			Registered: registered[network.ChainID],
		})
	}

	sort.Slice(networks, func(i, j int) bool {
		return networks[i].Name < networks[j].Name
	})

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}
