package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// LocalSigner signs transactions with an in-memory private key. It uses the
// pre-EIP-155 signer so the signature is valid on every chain.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner parses a hex private key, with or without 0x prefix
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is empty")
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the signer's account
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SignTx signs tx without replay protection
func (s *LocalSigner) SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx.Type() != types.LegacyTxType {
		return nil, fmt.Errorf("only legacy transactions can be signed without a chain ID, got type %d", tx.Type())
	}

	signed, err := types.SignTx(tx, types.HomesteadSigner{}, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// Factory creates LocalSigners
type Factory struct{}

// NewFactory creates a signer factory
func NewFactory() *Factory {
	return &Factory{}
}

// FromPrivateKey implements usecase.SignerFactory
func (Factory) FromPrivateKey(hexKey string) (usecase.TransactionSigner, error) {
	return NewLocalSigner(hexKey)
}

var (
	_ usecase.TransactionSigner = (*LocalSigner)(nil)
	_ usecase.SignerFactory     = (*Factory)(nil)
)
