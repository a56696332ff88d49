package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

// AddDeploymentParams describes a new registry entry
type AddDeploymentParams struct {
	Name    string
	ChainID uint64
	// URL defaults to the network's explorer page for the factory
	URL string
	// Address defaults to the configured factory address
	Address string
	// Verify checks over RPC that the factory code is live first
	Verify bool
}

// AddDeployment registers a network the factory is live on
type AddDeployment struct {
	config  *config.RuntimeConfig
	repo    DeploymentRepository
	checker BlockchainChecker
	log     *slog.Logger
}

// NewAddDeployment creates a new AddDeployment use case
func NewAddDeployment(cfg *config.RuntimeConfig, repo DeploymentRepository, checker BlockchainChecker, log *slog.Logger) *AddDeployment {
	return &AddDeployment{
		config:  cfg,
		repo:    repo,
		checker: checker,
		log:     log.With("component", "registry"),
	}
}

// Run validates and appends the entry
func (uc *AddDeployment) Run(ctx context.Context, params AddDeploymentParams) (*models.FactoryDeployment, error) {
	if params.ChainID == 0 {
		return nil, domain.ErrInvalidChainID
	}

	address := params.Address
	if address == "" {
		if uc.config.Factory.Address == (common.Address{}) {
			return nil, fmt.Errorf("no address given and no factory address configured")
		}
		address = uc.config.Factory.Address.Hex()
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%q: %w", address, domain.ErrInvalidAddress)
	}

	network, hasNetwork := lo.Find(lo.Values(uc.config.Networks), func(n *config.Network) bool {
		return n.ChainID == params.ChainID
	})

	name := params.Name
	if name == "" && hasNetwork {
		name = network.Name
	}

	url := params.URL
	if url == "" && hasNetwork && network.ExplorerURL != "" {
		url = fmt.Sprintf("%s/address/%s", network.ExplorerURL, common.HexToAddress(address).Hex())
	}

	if params.Verify {
		if !hasNetwork || network.RPCURL == "" {
			return nil, fmt.Errorf("cannot verify chain %d: no RPC URL configured", params.ChainID)
		}
		if err := uc.verify(ctx, network.RPCURL, params.ChainID, common.HexToAddress(address)); err != nil {
			return nil, err
		}
	}

	deployment := &models.FactoryDeployment{
		Name:    name,
		ChainID: params.ChainID,
		URL:     url,
		Address: address,
	}
	if err := uc.repo.SaveDeployment(ctx, deployment); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", deployment, err)
	}

	uc.log.Info("registered deployment", "name", name, "chain", params.ChainID, "address", address)
	return uc.repo.GetDeployment(ctx, params.ChainID)
}

func (uc *AddDeployment) verify(ctx context.Context, rpcURL string, chainID uint64, address common.Address) error {
	if err := uc.checker.Connect(ctx, rpcURL, chainID); err != nil {
		return err
	}
	defer uc.checker.Close()

	exists, reason, err := uc.checker.CheckDeploymentExists(ctx, address)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("factory not found at %s on chain %d: %s", address.Hex(), chainID, reason)
	}
	return nil
}
