package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

func addConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Factory: config.FactoryConfig{Address: common.HexToAddress(canonicalFactory)},
		Networks: map[string]*config.Network{
			"optimism": {Name: "optimism", ChainID: 10, RPCURL: "http://optimism.invalid", ExplorerURL: "https://optimistic.etherscan.io"},
		},
	}
}

func TestAddDeployment(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults from configuration", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		expected := &models.FactoryDeployment{
			Name:    "optimism",
			ChainID: 10,
			URL:     "https://optimistic.etherscan.io/address/" + canonicalFactory,
			Address: canonicalFactory,
		}
		repo.On("SaveDeployment", mock.Anything, expected).Return(nil)
		repo.On("GetDeployment", mock.Anything, uint64(10)).Return(expected, nil)

		dep, err := usecase.NewAddDeployment(addConfig(), repo, new(MockBlockchainChecker), discardLogger()).
			Run(ctx, usecase.AddDeploymentParams{ChainID: 10})
		require.NoError(t, err)
		assert.Equal(t, expected, dep)
		repo.AssertExpectations(t)
	})

	t.Run("verification failure does not register", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		checker := new(MockBlockchainChecker)
		checker.On("Connect", mock.Anything, "http://optimism.invalid", uint64(10)).Return(nil)
		checker.On("CheckDeploymentExists", mock.Anything, common.HexToAddress(canonicalFactory)).Return(false, "no code at address", nil)
		checker.On("Close").Return()

		_, err := usecase.NewAddDeployment(addConfig(), repo, checker, discardLogger()).
			Run(ctx, usecase.AddDeploymentParams{ChainID: 10, Verify: true})
		assert.ErrorContains(t, err, "no code at address")
		repo.AssertNotCalled(t, "SaveDeployment", mock.Anything, mock.Anything)
		checker.AssertExpectations(t)
	})

	t.Run("verification needs an rpc", func(t *testing.T) {
		_, err := usecase.NewAddDeployment(addConfig(), new(MockDeploymentRepository), new(MockBlockchainChecker), discardLogger()).
			Run(ctx, usecase.AddDeploymentParams{Name: "Base", ChainID: 8453, Verify: true})
		assert.ErrorContains(t, err, "no RPC URL")
	})

	t.Run("invalid input", func(t *testing.T) {
		uc := usecase.NewAddDeployment(addConfig(), new(MockDeploymentRepository), new(MockBlockchainChecker), discardLogger())

		_, err := uc.Run(ctx, usecase.AddDeploymentParams{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidChainID)

		_, err = uc.Run(ctx, usecase.AddDeploymentParams{Name: "x", ChainID: 5, Address: "0x12"})
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("duplicate chain", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("SaveDeployment", mock.Anything, mock.Anything).Return(domain.ErrAlreadyExists)

		_, err := usecase.NewAddDeployment(addConfig(), repo, new(MockBlockchainChecker), discardLogger()).
			Run(ctx, usecase.AddDeploymentParams{Name: "Optimism", ChainID: 10})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})
}
