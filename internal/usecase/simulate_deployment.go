package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

// SimulateParams selects what to simulate. Exactly one of PlanPath, Plan
// or Step must be set.
type SimulateParams struct {
	PlanPath string
	Plan     *domain.SimulationPlan
	Step     *domain.PlanStep
	// Accounts funded on every chain, in addition to the plan's
	Accounts []domain.PlanAccount
	// ChainIDs overrides the plan's chains
	ChainIDs []uint64
}

// StepOutcome is the result of one step on one chain
type StepOutcome struct {
	Name      string `json:"name,omitempty"`
	Operation string `json:"operation,omitempty"`
	// Method is the decoded signature of a calldata step
	Method  string               `json:"method,omitempty"`
	Address *common.Address      `json:"address,omitempty"`
	Salt    *common.Hash         `json:"salt,omitempty"`
	Relay   *common.Address      `json:"relay,omitempty"`
	Events  []domain.EventRecord `json:"events,omitempty"`
	// Error is set when the factory rejected the request
	Error *domain.FactoryError `json:"error,omitempty"`
	// Failure is set when the request could not be submitted at all
	Failure string `json:"failure,omitempty"`
}

// Succeeded reports whether the step deployed a contract
func (o StepOutcome) Succeeded() bool {
	return o.Address != nil
}

// ChainSimulation is the plan's outcome on one chain
type ChainSimulation struct {
	ChainID uint64         `json:"chainId"`
	Factory common.Address `json:"factory"`
	Steps   []StepOutcome  `json:"steps"`
}

// SimulationResult collects every chain's outcome
type SimulationResult struct {
	Steps  []domain.PlanStep `json:"-"`
	Chains []ChainSimulation `json:"chains"`
}

// Converged reports whether step i deployed to the same address on every
// chain
func (r *SimulationResult) Converged(i int) bool {
	if len(r.Chains) == 0 {
		return false
	}
	first := r.Chains[0].Steps[i].Address
	if first == nil {
		return false
	}
	return lo.EveryBy(r.Chains, func(c ChainSimulation) bool {
		addr := c.Steps[i].Address
		return addr != nil && *addr == *first
	})
}

// SimulateDeployment replays factory requests on fresh simulated networks
type SimulateDeployment struct {
	config   *config.RuntimeConfig
	networks NetworkProvider
	plans    PlanLoader
	router   CallRouter
	sink     ProgressSink
	log      *slog.Logger
}

// NewSimulateDeployment creates a new SimulateDeployment use case
func NewSimulateDeployment(cfg *config.RuntimeConfig, networks NetworkProvider, plans PlanLoader, router CallRouter, sink ProgressSink, log *slog.Logger) *SimulateDeployment {
	return &SimulateDeployment{
		config:   cfg,
		networks: networks,
		plans:    plans,
		router:   router,
		sink:     sink,
		log:      log.With("component", "simulate"),
	}
}

// Run simulates the plan on every selected chain
func (uc *SimulateDeployment) Run(ctx context.Context, params SimulateParams) (*SimulationResult, error) {
	plan, err := uc.resolvePlan(ctx, params)
	if err != nil {
		return nil, err
	}

	chains := uc.resolveChains(plan, params.ChainIDs)
	accounts := append(append([]domain.PlanAccount{}, plan.Accounts...), params.Accounts...)

	result := &SimulationResult{Steps: plan.Steps}
	for i, chainID := range chains {
		uc.sink.OnProgress(ctx, ProgressEvent{
			Stage:   "simulate",
			Current: i + 1,
			Total:   len(chains),
			Message: fmt.Sprintf("chain %d", chainID),
			Spinner: true,
		})

		chain, err := uc.simulateChain(ctx, chainID, accounts, plan.Steps)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", chainID, err)
		}
		result.Chains = append(result.Chains, *chain)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(chains),
		Total:   len(chains),
		Message: "Simulation complete",
	})
	return result, nil
}

func (uc *SimulateDeployment) resolvePlan(ctx context.Context, params SimulateParams) (*domain.SimulationPlan, error) {
	set := lo.Count([]bool{params.PlanPath != "", params.Plan != nil, params.Step != nil}, true)
	if set != 1 {
		return nil, fmt.Errorf("exactly one of a plan file, a plan or a single step is required")
	}

	switch {
	case params.PlanPath != "":
		return uc.plans.LoadPlan(ctx, params.PlanPath)
	case params.Plan != nil:
		return params.Plan, nil
	default:
		step := *params.Step
		if step.Name == "" {
			step.Name = step.Operation
		}
		if step.Name == "" && step.IsRawCall() {
			step.Name = "call"
		}
		return &domain.SimulationPlan{Steps: []domain.PlanStep{step}}, nil
	}
}

// resolveChains picks the chains from flags, then the plan, then the config
func (uc *SimulateDeployment) resolveChains(plan *domain.SimulationPlan, override []uint64) []uint64 {
	for _, candidate := range [][]uint64{override, plan.Chains, uc.config.SimulationChains} {
		if len(candidate) > 0 {
			return lo.Uniq(candidate)
		}
	}
	return []uint64{1}
}

func (uc *SimulateDeployment) simulateChain(ctx context.Context, chainID uint64, accounts []domain.PlanAccount, steps []domain.PlanStep) (*ChainSimulation, error) {
	network, err := uc.networks.NewNetwork(ctx, chainID)
	if err != nil {
		return nil, err
	}

	for _, account := range accounts {
		addr, balance, err := account.Funding()
		if err != nil {
			return nil, err
		}
		network.Fund(addr, balance)
	}

	factory := NewFactory(network, network.FactoryAddress(), uc.log)
	chain := &ChainSimulation{ChainID: chainID, Factory: factory.Address()}

	for i, step := range steps {
		outcome := StepOutcome{Name: step.Name, Operation: step.Operation}
		if outcome.Name == "" {
			outcome.Name = fmt.Sprintf("step %d", i+1)
		}

		res, method, err := uc.runStep(ctx, factory, step)
		var invalid *invalidStepError
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf("%s: %w", outcome.Name, invalid.err)
		}
		outcome.Method = method

		switch {
		case err == nil:
			outcome.Address = &res.Address
			outcome.Salt = res.Salt
			outcome.Relay = res.Relay
			outcome.Events = res.Events
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			if fe, ok := domain.AsFactoryError(err); ok {
				outcome.Error = fe
			} else {
				outcome.Failure = err.Error()
			}
			uc.log.Debug("step failed", "chain", chainID, "step", outcome.Name, "error", err)
		}
		chain.Steps = append(chain.Steps, outcome)
	}
	return chain, nil
}

// invalidStepError marks a step that could not be turned into a request
type invalidStepError struct {
	err error
}

func (e *invalidStepError) Error() string { return e.err.Error() }

func (e *invalidStepError) Unwrap() error { return e.err }

// runStep submits a step either as a typed request or, for calldata steps,
// through the call router
func (uc *SimulateDeployment) runStep(ctx context.Context, factory *Factory, step domain.PlanStep) (*domain.DeploymentResult, string, error) {
	if !step.IsRawCall() {
		req, err := step.Request()
		if err != nil {
			return nil, "", &invalidStepError{err: err}
		}
		res, err := factory.Execute(ctx, req)
		return res, "", err
	}

	call, err := step.Call()
	if err != nil {
		return nil, "", &invalidStepError{err: err}
	}
	routed, err := uc.router.Route(ctx, factory, call)
	if err != nil {
		return nil, "", err
	}
	if routed.Deployment != nil {
		return routed.Deployment, routed.Method, nil
	}
	return &domain.DeploymentResult{Address: routed.Address}, routed.Method, nil
}
