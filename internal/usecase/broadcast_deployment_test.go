package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

const (
	sepoliaChain uint64 = 11155111
	baseChain    uint64 = 8453
)

var presignedFactory = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func broadcastConfig() *config.RuntimeConfig {
	cfg := presignConfig()
	cfg.Factory.Address = presignedFactory
	cfg.Networks = map[string]*config.Network{
		"sepolia": {ChainID: sepoliaChain, Name: "sepolia", RPCURL: "http://sepolia.rpc", ExplorerURL: "https://sepolia.etherscan.io"},
		"base":    {ChainID: baseChain, Name: "base", RPCURL: "http://base.rpc"},
	}
	return cfg
}

// presignInto writes a signed deployment into files and returns it
func presignInto(t *testing.T, files *memoryFiles) *usecase.PresignedTransaction {
	t.Helper()
	presigned, err := usecase.NewPresignDeployment(presignConfig(), keySignerFactory{}, files, new(MockSelector), discardLogger()).
		Run(context.Background(), usecase.PresignParams{})
	require.NoError(t, err)
	return presigned
}

func TestBroadcastDeployment(t *testing.T) {
	ctx := context.Background()

	t.Run("broadcasts, skips live networks and registers", func(t *testing.T) {
		files := newMemoryFiles()
		presigned := presignInto(t, files)

		chain := new(MockBlockchainChecker)
		chain.On("Connect", mock.Anything, "http://sepolia.rpc", sepoliaChain).Return(nil).Once()
		chain.On("Connect", mock.Anything, "http://base.rpc", baseChain).Return(nil).Once()
		chain.On("Close").Return()
		chain.On("CheckDeploymentExists", mock.Anything, presignedFactory).Return(false, "no code at address", nil).Once()
		chain.On("CheckDeploymentExists", mock.Anything, presignedFactory).Return(true, "", nil).Once()
		chain.On("NonceAt", mock.Anything, devAccount).Return(uint64(0), nil).Once()
		chain.On("SendTransaction", mock.Anything, mock.MatchedBy(func(tx *types.Transaction) bool {
			return tx.Hash() == presigned.Hash
		})).Return(nil).Once()
		chain.On("WaitMined", mock.Anything, presigned.Hash).Return(&types.Receipt{
			Status:          types.ReceiptStatusSuccessful,
			ContractAddress: presignedFactory,
			BlockNumber:     big.NewInt(42),
			GasUsed:         21_000,
			TxHash:          presigned.Hash,
		}, nil).Once()

		repo := new(MockDeploymentRepository)
		repo.On("SaveDeployment", mock.Anything, mock.MatchedBy(func(dep *models.FactoryDeployment) bool {
			return dep.ChainID == sepoliaChain
		})).Return(nil).Once()
		repo.On("SaveDeployment", mock.Anything, mock.MatchedBy(func(dep *models.FactoryDeployment) bool {
			return dep.ChainID == baseChain
		})).Return(fmt.Errorf("chain 8453: %w", domain.ErrAlreadyExists)).Once()

		sink := &MockProgressSink{}
		uc := usecase.NewBroadcastDeployment(broadcastConfig(), chain, repo, files, new(MockSelector), sink, discardLogger())
		result, err := uc.Run(ctx, usecase.BroadcastParams{
			ChainIDs: []uint64{sepoliaChain, baseChain},
			Register: true,
			Force:    true,
		})
		require.NoError(t, err)

		assert.Equal(t, devAccount, result.From)
		assert.Equal(t, presignedFactory, result.Factory)
		assert.True(t, result.Succeeded())
		require.Len(t, result.Outcomes, 2)

		mined := result.Outcomes[0]
		assert.Equal(t, usecase.BroadcastStatusMined, mined.Status)
		assert.Equal(t, uint64(42), mined.BlockNumber)
		assert.True(t, mined.Registered)
		assert.Equal(t, filepath.Join("out", usecase.BroadcastDir, "11155111", usecase.TransactionReceiptFile), mined.Artifact)

		receipt, err := files.ReadFile(ctx, mined.Artifact)
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(receipt, &decoded))
		assert.Equal(t, strings.ToLower(presignedFactory.Hex()), decoded["contractAddress"])

		skipped := result.Outcomes[1]
		assert.Equal(t, usecase.BroadcastStatusSkipped, skipped.Status)
		assert.False(t, skipped.Registered)
		assert.Empty(t, skipped.Artifact)

		registered := repo.Calls[0].Arguments.Get(1).(*models.FactoryDeployment)
		assert.Equal(t, "https://sepolia.etherscan.io/address/"+presignedFactory.Hex(), registered.URL)

		chain.AssertExpectations(t)
		repo.AssertExpectations(t)
		assert.Len(t, sink.infos, 2)
	})

	t.Run("used deployer nonce is not broadcast", func(t *testing.T) {
		files := newMemoryFiles()
		presignInto(t, files)

		chain := new(MockBlockchainChecker)
		chain.On("Connect", mock.Anything, "http://base.rpc", baseChain).Return(nil)
		chain.On("Close").Return()
		chain.On("CheckDeploymentExists", mock.Anything, presignedFactory).Return(false, "no code at address", nil)
		chain.On("NonceAt", mock.Anything, devAccount).Return(uint64(3), nil)

		sink := &MockProgressSink{}
		uc := usecase.NewBroadcastDeployment(broadcastConfig(), chain, new(MockDeploymentRepository), files, new(MockSelector), sink, discardLogger())
		result, err := uc.Run(ctx, usecase.BroadcastParams{ChainIDs: []uint64{baseChain}, Force: true})
		require.NoError(t, err)

		assert.False(t, result.Succeeded())
		outcome := result.Outcomes[0]
		assert.Equal(t, usecase.BroadcastStatusFailed, outcome.Status)
		assert.Contains(t, outcome.Reason, "has nonce 3")
		chain.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)

		recorded, err := files.ReadFile(ctx, filepath.Join("out", usecase.BroadcastDir, "8453", usecase.TransactionErrorFile))
		require.NoError(t, err)
		assert.Contains(t, string(recorded), "has nonce 3")
		assert.Len(t, sink.errors, 1)
	})

	t.Run("reverted receipt fails", func(t *testing.T) {
		files := newMemoryFiles()
		presigned := presignInto(t, files)

		chain := new(MockBlockchainChecker)
		chain.On("Connect", mock.Anything, "http://base.rpc", baseChain).Return(nil)
		chain.On("Close").Return()
		chain.On("CheckDeploymentExists", mock.Anything, presignedFactory).Return(false, "no code at address", nil)
		chain.On("NonceAt", mock.Anything, devAccount).Return(uint64(0), nil)
		chain.On("SendTransaction", mock.Anything, mock.Anything).Return(nil)
		chain.On("WaitMined", mock.Anything, presigned.Hash).Return(&types.Receipt{
			Status:      types.ReceiptStatusFailed,
			BlockNumber: big.NewInt(7),
		}, nil)

		uc := usecase.NewBroadcastDeployment(broadcastConfig(), chain, new(MockDeploymentRepository), files, new(MockSelector), &MockProgressSink{}, discardLogger())
		result, err := uc.Run(ctx, usecase.BroadcastParams{ChainIDs: []uint64{baseChain}, Force: true, Register: true})
		require.NoError(t, err)

		outcome := result.Outcomes[0]
		assert.Equal(t, usecase.BroadcastStatusFailed, outcome.Status)
		assert.Equal(t, "transaction reverted", outcome.Reason)
		assert.False(t, outcome.Registered)
	})

	t.Run("network without rpc", func(t *testing.T) {
		files := newMemoryFiles()
		presignInto(t, files)

		chain := new(MockBlockchainChecker)
		uc := usecase.NewBroadcastDeployment(broadcastConfig(), chain, new(MockDeploymentRepository), files, new(MockSelector), &MockProgressSink{}, discardLogger())
		result, err := uc.Run(ctx, usecase.BroadcastParams{ChainIDs: []uint64{10}, Force: true})
		require.NoError(t, err)

		assert.Equal(t, usecase.BroadcastStatusNoRPC, result.Outcomes[0].Status)
		assert.Equal(t, "chain 10", result.Outcomes[0].Network)
		chain.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("declined confirmation", func(t *testing.T) {
		files := newMemoryFiles()
		presignInto(t, files)

		selector := new(MockSelector)
		selector.On("Confirm", mock.Anything, mock.Anything).Return(false, nil)

		uc := usecase.NewBroadcastDeployment(broadcastConfig(), new(MockBlockchainChecker), new(MockDeploymentRepository), files, selector, &MockProgressSink{}, discardLogger())
		_, err := uc.Run(ctx, usecase.BroadcastParams{ChainIDs: []uint64{baseChain}})
		assert.ErrorContains(t, err, "cancelled")
	})

	t.Run("transaction for another factory", func(t *testing.T) {
		files := newMemoryFiles()
		presignInto(t, files)

		cfg := broadcastConfig()
		cfg.Factory.Address = common.HexToAddress("0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed")
		uc := usecase.NewBroadcastDeployment(cfg, new(MockBlockchainChecker), new(MockDeploymentRepository), files, new(MockSelector), &MockProgressSink{}, discardLogger())
		_, err := uc.Run(ctx, usecase.BroadcastParams{ChainIDs: []uint64{baseChain}, Force: true})
		assert.ErrorContains(t, err, "the configured factory is")
	})

	t.Run("missing signed transaction", func(t *testing.T) {
		uc := usecase.NewBroadcastDeployment(broadcastConfig(), new(MockBlockchainChecker), new(MockDeploymentRepository), newMemoryFiles(), new(MockSelector), &MockProgressSink{}, discardLogger())
		_, err := uc.Run(ctx, usecase.BroadcastParams{ChainIDs: []uint64{baseChain}, Force: true})
		assert.ErrorContains(t, err, "failed to read signed transaction")

		_, err = uc.Run(ctx, usecase.BroadcastParams{Force: true})
		assert.ErrorContains(t, err, "no networks")
	})
}
