package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

const (
	SignedTransactionFile  = "signed_serialised_transaction.json"
	TransactionDetailsFile = "transaction_details.json"
	SigningErrorFile       = "signing_attempt_error.json"

	DefaultPresignGasLimit     uint64 = 3_000_000
	DefaultPresignGasPriceGwei uint64 = 100
)

// PresignParams overrides the configured presign settings
type PresignParams struct {
	PrivateKey   string
	OutputDir    string
	GasLimit     uint64
	GasPriceGwei uint64
	// Force overwrites an existing signed transaction without asking
	Force bool
}

// PresignedTransaction describes the signed factory deployment
type PresignedTransaction struct {
	From       common.Address `json:"from"`
	Factory    common.Address `json:"factory"`
	Nonce      uint64         `json:"nonce"`
	GasLimit   uint64         `json:"gasLimit"`
	GasPrice   string         `json:"gasPrice"`
	Type       uint8          `json:"type"`
	ChainID    uint64         `json:"chainId"`
	Hash       common.Hash    `json:"hash"`
	Serialised string         `json:"serialised"`
	OutputPath string         `json:"-"`
}

// PresignDeployment signs the replayable factory deployment transaction:
// legacy type, nonce 0, no chain ID, so any chain accepts it and the
// factory lands at the same address everywhere
type PresignDeployment struct {
	config   *config.RuntimeConfig
	signers  SignerFactory
	files    FileWriter
	selector InteractiveSelector
	log      *slog.Logger
}

// NewPresignDeployment creates a new PresignDeployment use case
func NewPresignDeployment(cfg *config.RuntimeConfig, signers SignerFactory, files FileWriter, selector InteractiveSelector, log *slog.Logger) *PresignDeployment {
	return &PresignDeployment{
		config:   cfg,
		signers:  signers,
		files:    files,
		selector: selector,
		log:      log.With("component", "presign"),
	}
}

// Run signs the transaction and writes the artifacts
func (uc *PresignDeployment) Run(ctx context.Context, params PresignParams) (*PresignedTransaction, error) {
	params = uc.withDefaults(params)

	target := filepath.Join(params.OutputDir, SignedTransactionFile)
	exists, err := uc.files.FileExists(ctx, target)
	if err != nil {
		return nil, err
	}
	if exists && !params.Force {
		ok, err := uc.selector.Confirm(ctx, fmt.Sprintf("%s exists, overwrite", target))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", target, domain.ErrAlreadyExists)
		}
	}

	presigned, err := uc.sign(ctx, params)
	if err != nil {
		uc.writeError(ctx, params.OutputDir, err)
		return nil, err
	}

	serialised, err := json.Marshal(presigned.Serialised)
	if err != nil {
		return nil, err
	}
	if err := uc.files.WriteFile(ctx, target, serialised); err != nil {
		return nil, fmt.Errorf("failed to write signed transaction: %w", err)
	}

	details, err := json.MarshalIndent(presigned, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := uc.files.WriteFile(ctx, filepath.Join(params.OutputDir, TransactionDetailsFile), details); err != nil {
		return nil, fmt.Errorf("failed to write transaction details: %w", err)
	}

	presigned.OutputPath = target
	uc.log.Info("presigned factory deployment", "from", presigned.From, "factory", presigned.Factory, "hash", presigned.Hash)
	return presigned, nil
}

func (uc *PresignDeployment) withDefaults(params PresignParams) PresignParams {
	if params.PrivateKey == "" {
		params.PrivateKey = uc.config.Presign.PrivateKey
	}
	if params.OutputDir == "" {
		params.OutputDir = uc.config.Presign.OutputDir
	}
	if params.GasLimit == 0 {
		params.GasLimit = uc.config.Presign.GasLimit
	}
	if params.GasLimit == 0 {
		params.GasLimit = DefaultPresignGasLimit
	}
	if params.GasPriceGwei == 0 {
		params.GasPriceGwei = uc.config.Presign.GasPriceGwei
	}
	if params.GasPriceGwei == 0 {
		params.GasPriceGwei = DefaultPresignGasPriceGwei
	}
	return params
}

func (uc *PresignDeployment) sign(ctx context.Context, params PresignParams) (*PresignedTransaction, error) {
	if params.PrivateKey == "" {
		return nil, fmt.Errorf("no private key configured")
	}
	if len(uc.config.Factory.InitCode) == 0 {
		return nil, fmt.Errorf("no factory init code configured")
	}

	signer, err := uc.signers.FromPrivateKey(params.PrivateKey)
	if err != nil {
		return nil, err
	}

	gasPrice := new(big.Int).Mul(new(big.Int).SetUint64(params.GasPriceGwei), big.NewInt(ethparams.GWei))
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		To:       nil,
		Value:    new(big.Int),
		Gas:      params.GasLimit,
		GasPrice: gasPrice,
		Data:     uc.config.Factory.InitCode,
	})

	signed, err := signer.SignTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialise transaction: %w", err)
	}

	from, err := verifyPresigned(raw)
	if err != nil {
		return nil, err
	}
	if from != signer.Address() {
		return nil, fmt.Errorf("signed transaction recovers to %s, expected %s", from.Hex(), signer.Address().Hex())
	}

	factory := domain.DeriveNonceBased(from, 0)
	if uc.config.Factory.Deployer != (common.Address{}) && uc.config.Factory.Deployer != from {
		uc.log.Warn("signer is not the configured factory deployer", "signer", from, "deployer", uc.config.Factory.Deployer, "factory", factory)
	}

	return &PresignedTransaction{
		From:       from,
		Factory:    factory,
		Nonce:      signed.Nonce(),
		GasLimit:   signed.Gas(),
		GasPrice:   signed.GasPrice().String(),
		Type:       signed.Type(),
		ChainID:    0,
		Hash:       signed.Hash(),
		Serialised: hexutil.Encode(raw),
	}, nil
}

// verifyPresigned decodes the serialised transaction and checks it is
// replayable across chains, returning the recovered sender
func verifyPresigned(raw []byte) (common.Address, error) {
	var decoded types.Transaction
	if err := rlp.DecodeBytes(raw, &decoded); err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	if decoded.Type() != types.LegacyTxType {
		return common.Address{}, fmt.Errorf("signed transaction has type %d, expected legacy", decoded.Type())
	}
	if decoded.Protected() {
		return common.Address{}, fmt.Errorf("signed transaction is replay protected")
	}
	if decoded.To() != nil || decoded.Nonce() != 0 {
		return common.Address{}, fmt.Errorf("signed transaction is not a nonce 0 contract creation")
	}
	return types.Sender(types.HomesteadSigner{}, &decoded)
}

func (uc *PresignDeployment) writeError(ctx context.Context, dir string, signErr error) {
	data, err := json.Marshal(map[string]string{"error": signErr.Error()})
	if err != nil {
		return
	}
	if err := uc.files.WriteFile(ctx, filepath.Join(dir, SigningErrorFile), data); err != nil {
		uc.log.Warn("failed to record signing error", "error", err)
	}
}
