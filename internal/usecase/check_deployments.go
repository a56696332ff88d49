package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

// CheckStatus is the verdict for one network
type CheckStatus string

const (
	CheckStatusDeployed CheckStatus = "deployed"
	CheckStatusMissing  CheckStatus = "missing"
	CheckStatusNoRPC    CheckStatus = "no-rpc"
	CheckStatusError    CheckStatus = "error"
)

// CheckDeploymentsParams selects which registered networks to check
type CheckDeploymentsParams struct {
	// ChainIDs restricts the check, empty checks every registered network
	ChainIDs []uint64
}

// NetworkCheck is the outcome for one network
type NetworkCheck struct {
	Deployment    *models.FactoryDeployment `json:"deployment"`
	Status        CheckStatus               `json:"status"`
	Reason        string                    `json:"reason,omitempty"`
	FactoryNonce  uint64                    `json:"factoryNonce"`
	DeployerNonce uint64                    `json:"deployerNonce"`
}

// CheckDeploymentsResult lists the per-network outcomes in registry order
type CheckDeploymentsResult struct {
	Checks []NetworkCheck
}

// Healthy reports whether every checked network has the factory
func (r *CheckDeploymentsResult) Healthy() bool {
	return lo.EveryBy(r.Checks, func(c NetworkCheck) bool {
		return c.Status == CheckStatusDeployed
	})
}

// CheckDeployments verifies that the factory is live on registered networks
type CheckDeployments struct {
	config  *config.RuntimeConfig
	repo    DeploymentRepository
	checker BlockchainChecker
	sink    ProgressSink
	log     *slog.Logger
}

// NewCheckDeployments creates a new CheckDeployments use case
func NewCheckDeployments(cfg *config.RuntimeConfig, repo DeploymentRepository, checker BlockchainChecker, sink ProgressSink, log *slog.Logger) *CheckDeployments {
	return &CheckDeployments{
		config:  cfg,
		repo:    repo,
		checker: checker,
		sink:    sink,
		log:     log.With("component", "check"),
	}
}

// Run checks the networks one after another
func (uc *CheckDeployments) Run(ctx context.Context, params CheckDeploymentsParams) (*CheckDeploymentsResult, error) {
	deployments, err := uc.repo.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}

	if len(params.ChainIDs) > 0 {
		deployments = lo.Filter(deployments, func(dep *models.FactoryDeployment, _ int) bool {
			return slices.Contains(params.ChainIDs, dep.ChainID)
		})
		if len(deployments) == 0 {
			return nil, fmt.Errorf("none of the chains %v are registered", params.ChainIDs)
		}
	}

	result := &CheckDeploymentsResult{}
	for i, dep := range deployments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "check",
			Current: i + 1,
			Total:   len(deployments),
			Message: dep.Name,
			Spinner: true,
		})

		check := uc.checkOne(ctx, dep)
		if check.Status != CheckStatusDeployed {
			uc.sink.Error(fmt.Sprintf("%s: %s", dep, check.Reason))
		}
		result.Checks = append(result.Checks, check)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "check",
		Current: len(deployments),
		Total:   len(deployments),
		Message: "done",
	})
	return result, nil
}

func (uc *CheckDeployments) checkOne(ctx context.Context, dep *models.FactoryDeployment) NetworkCheck {
	check := NetworkCheck{Deployment: dep}

	network, ok := lo.Find(lo.Values(uc.config.Networks), func(n *config.Network) bool {
		return n.ChainID == dep.ChainID && n.RPCURL != ""
	})
	if !ok {
		check.Status = CheckStatusNoRPC
		check.Reason = "no RPC URL configured for this chain"
		return check
	}

	if err := uc.checker.Connect(ctx, network.RPCURL, dep.ChainID); err != nil {
		uc.log.Debug("connect failed", "chain", dep.ChainID, "error", err)
		check.Status = CheckStatusError
		check.Reason = err.Error()
		return check
	}
	defer uc.checker.Close()

	address := common.HexToAddress(dep.Address)
	exists, reason, err := uc.checker.CheckDeploymentExists(ctx, address)
	if err != nil {
		check.Status = CheckStatusError
		check.Reason = err.Error()
		return check
	}
	if !exists {
		check.Status = CheckStatusMissing
		check.Reason = reason
		return check
	}

	check.Status = CheckStatusDeployed
	if nonce, err := uc.checker.NonceAt(ctx, address); err == nil {
		check.FactoryNonce = nonce
	}
	if uc.config.Factory.Deployer != (common.Address{}) {
		if nonce, err := uc.checker.NonceAt(ctx, uc.config.Factory.Deployer); err == nil {
			check.DeployerNonce = nonce
		}
	}
	return check
}
