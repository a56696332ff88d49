package evm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// Provider creates simulated networks with the configured factory installed
type Provider struct {
	factory config.FactoryConfig
	log     *slog.Logger
}

// NewProvider creates a new network provider
func NewProvider(cfg *config.RuntimeConfig, log *slog.Logger) *Provider {
	return &Provider{
		factory: cfg.Factory,
		log:     log,
	}
}

// NewNetwork creates a fresh network for chainID and installs the factory
func (p *Provider) NewNetwork(ctx context.Context, chainID uint64) (usecase.SimulatedNetwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	network, err := NewNetwork(chainID, p.log)
	if err != nil {
		return nil, err
	}

	addr, err := network.InstallFactory(p.factory.Deployer, p.factory.InitCode)
	if err != nil {
		return nil, fmt.Errorf("chain %d: %w", chainID, err)
	}
	if p.factory.Address != addr {
		return nil, fmt.Errorf("chain %d: factory installed at %s, configured %s", chainID, addr.Hex(), p.factory.Address.Hex())
	}
	return network, nil
}

var _ usecase.NetworkProvider = (*Provider)(nil)
