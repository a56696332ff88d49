package usecase_test

import (
	"context"
	"errors"
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

func checkConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Factory: config.FactoryConfig{Deployer: devAccount},
		Networks: map[string]*config.Network{
			"mainnet":  {Name: "mainnet", ChainID: 1, RPCURL: "http://mainnet.invalid"},
			"optimism": {Name: "optimism", ChainID: 10, RPCURL: "http://optimism.invalid"},
		},
	}
}

func TestCheckDeployments(t *testing.T) {
	ctx := context.Background()
	factory := common.HexToAddress(canonicalFactory)
	deployments := []*models.FactoryDeployment{
		{Name: "Ethereum", ChainID: 1, Address: canonicalFactory},
		{Name: "Optimism", ChainID: 10, Address: canonicalFactory},
		{Name: "Base", ChainID: 8453, Address: canonicalFactory},
	}

	t.Run("reports every registered network", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("ListDeployments", mock.Anything).Return(deployments, nil)

		checker := new(MockBlockchainChecker)
		checker.On("Connect", mock.Anything, "http://mainnet.invalid", uint64(1)).Return(nil)
		checker.On("Connect", mock.Anything, "http://optimism.invalid", uint64(10)).Return(nil)
		checker.On("CheckDeploymentExists", mock.Anything, factory).Return(true, "", nil).Once()
		checker.On("CheckDeploymentExists", mock.Anything, factory).Return(false, "no code at address", nil).Once()
		checker.On("NonceAt", mock.Anything, factory).Return(uint64(7), nil)
		checker.On("NonceAt", mock.Anything, devAccount).Return(uint64(1), nil)
		checker.On("Close").Return()

		sink := &MockProgressSink{}
		result, err := usecase.NewCheckDeployments(checkConfig(), repo, checker, sink, discardLogger()).
			Run(ctx, usecase.CheckDeploymentsParams{})
		require.NoError(t, err)
		require.Len(t, result.Checks, 3)

		assert.Equal(t, usecase.CheckStatusDeployed, result.Checks[0].Status)
		assert.Equal(t, uint64(7), result.Checks[0].FactoryNonce)
		assert.Equal(t, uint64(1), result.Checks[0].DeployerNonce)

		assert.Equal(t, usecase.CheckStatusMissing, result.Checks[1].Status)
		assert.Equal(t, "no code at address", result.Checks[1].Reason)

		assert.Equal(t, usecase.CheckStatusNoRPC, result.Checks[2].Status)
		assert.False(t, result.Healthy())

		assert.Len(t, sink.errors, 2)
		assert.Equal(t, "check", sink.events[0].Stage)
		checker.AssertNumberOfCalls(t, "Close", 2)
	})

	t.Run("restricts to selected chains", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("ListDeployments", mock.Anything).Return(deployments, nil)

		checker := new(MockBlockchainChecker)
		checker.On("Connect", mock.Anything, "http://optimism.invalid", uint64(10)).Return(nil)
		checker.On("CheckDeploymentExists", mock.Anything, factory).Return(true, "", nil)
		checker.On("NonceAt", mock.Anything, mock.Anything).Return(uint64(0), nil)
		checker.On("Close").Return()

		result, err := usecase.NewCheckDeployments(checkConfig(), repo, checker, &MockProgressSink{}, discardLogger()).
			Run(ctx, usecase.CheckDeploymentsParams{ChainIDs: []uint64{10}})
		require.NoError(t, err)
		require.Len(t, result.Checks, 1)
		assert.True(t, result.Healthy())
	})

	t.Run("unregistered chain selection", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("ListDeployments", mock.Anything).Return(deployments, nil)

		_, err := usecase.NewCheckDeployments(checkConfig(), repo, new(MockBlockchainChecker), &MockProgressSink{}, discardLogger()).
			Run(ctx, usecase.CheckDeploymentsParams{ChainIDs: []uint64{42}})
		assert.ErrorContains(t, err, "registered")
	})

	t.Run("chain id mismatch is reported per network", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("ListDeployments", mock.Anything).Return(deployments[:1], nil)

		checker := new(MockBlockchainChecker)
		checker.On("Connect", mock.Anything, mock.Anything, uint64(1)).Return(domain.ErrNetworkMismatch)

		result, err := usecase.NewCheckDeployments(checkConfig(), repo, checker, &MockProgressSink{}, discardLogger()).
			Run(ctx, usecase.CheckDeploymentsParams{})
		require.NoError(t, err)
		assert.Equal(t, usecase.CheckStatusError, result.Checks[0].Status)
		checker.AssertNotCalled(t, "Close")
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("ListDeployments", mock.Anything).Return(nil, errors.New("corrupt"))

		_, err := usecase.NewCheckDeployments(checkConfig(), repo, new(MockBlockchainChecker), &MockProgressSink{}, discardLogger()).
			Run(ctx, usecase.CheckDeploymentsParams{})
		assert.Error(t, err)
	})
}
