package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

const (
	BroadcastDir           = "broadcasts"
	TransactionReceiptFile = "transaction_receipt.json"
	TransactionErrorFile   = "transaction_error.json"
)

// BroadcastStatus is the verdict for one network
type BroadcastStatus string

const (
	BroadcastStatusMined   BroadcastStatus = "mined"
	BroadcastStatusSkipped BroadcastStatus = "skipped"
	BroadcastStatusFailed  BroadcastStatus = "failed"
	BroadcastStatusNoRPC   BroadcastStatus = "no-rpc"
)

// BroadcastParams selects the signed transaction and the target networks
type BroadcastParams struct {
	// InputDir holds the signed transaction, defaults to the presign output
	InputDir string
	ChainIDs []uint64
	// Register appends every network the factory lands on to the registry
	Register bool
	// Force broadcasts without asking
	Force bool
}

// BroadcastOutcome is the result on one network
type BroadcastOutcome struct {
	Network     string          `json:"network"`
	ChainID     uint64          `json:"chainId"`
	Status      BroadcastStatus `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	TxHash      common.Hash     `json:"txHash"`
	BlockNumber uint64          `json:"blockNumber,omitempty"`
	GasUsed     uint64          `json:"gasUsed,omitempty"`
	Artifact    string          `json:"artifact,omitempty"`
	Registered  bool            `json:"registered,omitempty"`
}

// BroadcastResult lists the outcomes in the order the networks were given
type BroadcastResult struct {
	From     common.Address     `json:"from"`
	Factory  common.Address     `json:"factory"`
	Outcomes []BroadcastOutcome `json:"outcomes"`
}

// Succeeded reports whether the factory is live on every target network
func (r *BroadcastResult) Succeeded() bool {
	return lo.EveryBy(r.Outcomes, func(o BroadcastOutcome) bool {
		return o.Status == BroadcastStatusMined || o.Status == BroadcastStatusSkipped
	})
}

// BroadcastDeployment sends the presigned factory deployment unmodified to
// live networks and records each receipt
type BroadcastDeployment struct {
	config      *config.RuntimeConfig
	broadcaster TransactionBroadcaster
	repo        DeploymentRepository
	files       FileWriter
	selector    InteractiveSelector
	sink        ProgressSink
	log         *slog.Logger
}

// NewBroadcastDeployment creates a new BroadcastDeployment use case
func NewBroadcastDeployment(
	cfg *config.RuntimeConfig,
	broadcaster TransactionBroadcaster,
	repo DeploymentRepository,
	files FileWriter,
	selector InteractiveSelector,
	sink ProgressSink,
	log *slog.Logger,
) *BroadcastDeployment {
	return &BroadcastDeployment{
		config:      cfg,
		broadcaster: broadcaster,
		repo:        repo,
		files:       files,
		selector:    selector,
		sink:        sink,
		log:         log.With("component", "broadcast"),
	}
}

// Run broadcasts to the networks one after another. Per-network failures
// are reported in the result, not returned.
func (uc *BroadcastDeployment) Run(ctx context.Context, params BroadcastParams) (*BroadcastResult, error) {
	if len(params.ChainIDs) == 0 {
		return nil, fmt.Errorf("no networks to broadcast to")
	}
	if params.InputDir == "" {
		params.InputDir = uc.config.Presign.OutputDir
	}

	tx, from, err := uc.loadSigned(ctx, params.InputDir)
	if err != nil {
		return nil, err
	}

	factory := domain.DeriveNonceBased(from, 0)
	if expected := uc.config.Factory.Address; expected != (common.Address{}) && expected != factory {
		return nil, fmt.Errorf("signed transaction deploys %s, the configured factory is %s", factory.Hex(), expected.Hex())
	}

	if !params.Force {
		ok, err := uc.selector.Confirm(ctx, fmt.Sprintf("Broadcast the factory deployment to %d network(s)", len(params.ChainIDs)))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("broadcast cancelled")
		}
	}

	result := &BroadcastResult{From: from, Factory: factory}
	for i, chainID := range params.ChainIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		network := uc.networkFor(chainID)
		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "broadcast",
			Current: i + 1,
			Total:   len(params.ChainIDs),
			Message: network.Name,
			Spinner: true,
		})

		outcome := uc.broadcastOne(ctx, network, tx, from, factory, params)
		switch outcome.Status {
		case BroadcastStatusMined:
			uc.sink.Info(fmt.Sprintf("%s: factory deployed in block %d", network.Name, outcome.BlockNumber))
		case BroadcastStatusSkipped:
			uc.sink.Info(fmt.Sprintf("%s: %s", network.Name, outcome.Reason))
		default:
			uc.sink.Error(fmt.Sprintf("%s: %s", network.Name, outcome.Reason))
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "broadcast", Message: "done"})
	return result, nil
}

// loadSigned reads the presign artifact and checks it is the replayable
// nonce 0 creation
func (uc *BroadcastDeployment) loadSigned(ctx context.Context, dir string) (*types.Transaction, common.Address, error) {
	path := filepath.Join(dir, SignedTransactionFile)
	data, err := uc.files.ReadFile(ctx, path)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to read signed transaction: %w", err)
	}

	var serialised string
	if err := json.Unmarshal(data, &serialised); err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	raw, err := hexutil.Decode(serialised)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	from, err := verifyPresigned(raw)
	if err != nil {
		return nil, common.Address{}, err
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	return tx, from, nil
}

func (uc *BroadcastDeployment) networkFor(chainID uint64) *config.Network {
	network, ok := lo.Find(lo.Values(uc.config.Networks), func(n *config.Network) bool {
		return n.ChainID == chainID && n.RPCURL != ""
	})
	if !ok {
		return &config.Network{ChainID: chainID, Name: "chain " + strconv.FormatUint(chainID, 10)}
	}
	return network
}

func (uc *BroadcastDeployment) broadcastOne(ctx context.Context, network *config.Network, tx *types.Transaction, from, factory common.Address, params BroadcastParams) BroadcastOutcome {
	outcome := BroadcastOutcome{Network: network.Name, ChainID: network.ChainID, TxHash: tx.Hash()}
	dir := filepath.Join(params.InputDir, BroadcastDir, strconv.FormatUint(network.ChainID, 10))

	fail := func(err error) BroadcastOutcome {
		outcome.Status = BroadcastStatusFailed
		outcome.Reason = err.Error()
		outcome.Artifact = uc.writeError(ctx, dir, outcome)
		return outcome
	}

	if network.RPCURL == "" {
		outcome.Status = BroadcastStatusNoRPC
		outcome.Reason = "no RPC URL configured for this chain"
		return outcome
	}

	if err := uc.broadcaster.Connect(ctx, network.RPCURL, network.ChainID); err != nil {
		return fail(err)
	}
	defer uc.broadcaster.Close()

	exists, _, err := uc.broadcaster.CheckDeploymentExists(ctx, factory)
	if err != nil {
		return fail(err)
	}
	if exists {
		outcome.Status = BroadcastStatusSkipped
		outcome.Reason = "factory already deployed"
		outcome.Registered = uc.register(ctx, network, factory, params.Register)
		return outcome
	}

	nonce, err := uc.broadcaster.NonceAt(ctx, from)
	if err != nil {
		return fail(err)
	}
	if nonce != 0 {
		return fail(fmt.Errorf("deployer %s has nonce %d, the factory can no longer land at %s", from.Hex(), nonce, factory.Hex()))
	}

	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	if err := uc.broadcaster.SendTransaction(ctx, tx); err != nil {
		return fail(fmt.Errorf("failed to send transaction: %w", err))
	}
	uc.log.Debug("transaction sent", "chain", network.ChainID, "hash", tx.Hash())

	receipt, err := uc.broadcaster.WaitMined(ctx, tx.Hash())
	if err != nil {
		return fail(fmt.Errorf("failed to wait for receipt: %w", err))
	}
	outcome.BlockNumber = receipt.BlockNumber.Uint64()
	outcome.GasUsed = receipt.GasUsed

	if receipt.Status != types.ReceiptStatusSuccessful {
		return fail(errors.New("transaction reverted"))
	}
	if receipt.ContractAddress != factory {
		return fail(fmt.Errorf("contract created at %s, expected %s", receipt.ContractAddress.Hex(), factory.Hex()))
	}

	data, err := json.MarshalIndent(receipt, "", "  ")
	if err == nil {
		path := filepath.Join(dir, TransactionReceiptFile)
		if err := uc.files.WriteFile(ctx, path, data); err != nil {
			uc.log.Warn("failed to record receipt", "chain", network.ChainID, "error", err)
		} else {
			outcome.Artifact = path
		}
	}

	outcome.Status = BroadcastStatusMined
	outcome.Registered = uc.register(ctx, network, factory, params.Register)
	return outcome
}

// register appends network to the registry; an existing entry is left alone
func (uc *BroadcastDeployment) register(ctx context.Context, network *config.Network, factory common.Address, enabled bool) bool {
	if !enabled {
		return false
	}

	dep := &models.FactoryDeployment{
		Name:    network.Name,
		ChainID: network.ChainID,
		Address: factory.Hex(),
	}
	if network.ExplorerURL != "" {
		dep.URL = fmt.Sprintf("%s/address/%s", network.ExplorerURL, factory.Hex())
	}

	if err := uc.repo.SaveDeployment(ctx, dep); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			uc.log.Warn("failed to register deployment", "chain", network.ChainID, "error", err)
		}
		return false
	}
	return true
}

func (uc *BroadcastDeployment) writeError(ctx context.Context, dir string, outcome BroadcastOutcome) string {
	data, err := json.MarshalIndent(map[string]any{
		"chainId": outcome.ChainID,
		"txHash":  outcome.TxHash,
		"error":   outcome.Reason,
	}, "", "  ")
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, TransactionErrorFile)
	if err := uc.files.WriteFile(ctx, path, data); err != nil {
		uc.log.Warn("failed to record broadcast error", "error", err)
		return ""
	}
	return path
}
