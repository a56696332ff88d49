package blockchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

const callTimeout = 5 * time.Second

// receiptPollInterval is how often WaitMined asks for the receipt
var receiptPollInterval = 2 * time.Second

// CheckerAdapter implements the BlockchainChecker interface using ethclient
type CheckerAdapter struct {
	client  *ethclient.Client
	chainID uint64
}

// NewCheckerAdapter creates a new blockchain checker adapter
func NewCheckerAdapter() *CheckerAdapter {
	return &CheckerAdapter{}
}

// Connect establishes connection to the blockchain. A chainID of 0 accepts
// whatever the node reports.
func (c *CheckerAdapter) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	c.Close()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	// Verify chain ID matches
	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to get chain ID: %w", err)
	}

	if chainID != 0 && networkChainID.Uint64() != chainID {
		client.Close()
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrNetworkMismatch, chainID, networkChainID.Uint64())
	}

	c.client = client
	c.chainID = networkChainID.Uint64()
	return nil
}

// ChainID returns the connected chain
func (c *CheckerAdapter) ChainID() uint64 {
	return c.chainID
}

// CheckDeploymentExists checks if a contract exists at the given address
func (c *CheckerAdapter) CheckDeploymentExists(ctx context.Context, address common.Address) (exists bool, reason string, err error) {
	if c.client == nil {
		return false, "", fmt.Errorf("not connected to blockchain")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	code, err := c.client.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Sprintf("failed to check code: %v", err), nil
	}

	// If no code at address, contract doesn't exist
	if len(code) == 0 {
		return false, "no code at address", nil
	}

	return true, "", nil
}

// NonceAt returns the latest nonce of addr
func (c *CheckerAdapter) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	if c.client == nil {
		return 0, fmt.Errorf("not connected to blockchain")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	nonce, err := c.client.NonceAt(ctx, addr, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce of %s: %w", addr.Hex(), err)
	}
	return nonce, nil
}

// SendTransaction submits a signed transaction
func (c *CheckerAdapter) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if c.client == nil {
		return fmt.Errorf("not connected to blockchain")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	return c.client.SendTransaction(ctx, tx)
}

// WaitMined polls for the receipt of hash until it is mined or ctx ends
func (c *CheckerAdapter) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected to blockchain")
	}

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt of %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the RPC connection
func (c *CheckerAdapter) Close() {
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// Ensure the adapter implements the interface
var _ usecase.TransactionBroadcaster = (*CheckerAdapter)(nil)
