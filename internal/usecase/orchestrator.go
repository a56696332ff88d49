package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// ErrInsufficientFunds is returned when the caller cannot cover the attached value
var ErrInsufficientFunds = errors.New("insufficient funds for attached value")

// ErrNoCodeAfterInit is the cause of an initialisation failure that left the
// new contract without code
var ErrNoCodeAfterInit = errors.New("no code at new contract after initialisation")

// Orchestrator executes deployment requests against an environment. Each
// request either completes entirely or leaves no trace: the environment is
// snapshotted before any state change and reverted on failure.
type Orchestrator struct {
	env     ExecutionEnvironment
	factory common.Address
	relays  *RelayProtocol
	log     *slog.Logger

	mu sync.Mutex
}

// NewOrchestrator creates an orchestrator for the factory at factory
func NewOrchestrator(env ExecutionEnvironment, factory common.Address, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		env:     env,
		factory: factory,
		relays:  NewRelayProtocol(env, environmentNonces{env: env}, factory, log),
		log:     log.With("component", "orchestrator"),
	}
}

// requestRun is the per-request bookkeeping. Events collected here are
// discarded if the request reverts.
type requestRun struct {
	req    *domain.DeploymentRequest
	state  domain.RequestState
	events []domain.EventRecord
	log    *slog.Logger
}

func (r *requestRun) transition(to domain.RequestState) {
	r.log.Debug("request state", "from", r.state, "to", to)
	r.state = to
}

// Execute runs one request to completion or rollback
func (o *Orchestrator) Execute(ctx context.Context, req *domain.DeploymentRequest) (*domain.DeploymentResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &requestRun{
		req: req,
		log: o.log.With("kind", req.Kind, "scheme", req.Scheme, "caller", req.Caller),
	}
	run.transition(domain.StateValidating)

	salt, err := o.validate(req)
	if err != nil {
		run.transition(domain.StateReverted)
		return nil, err
	}

	o.env.Begin(req.Caller)
	snapshot := o.env.Snapshot()
	result, err := o.execute(ctx, run, salt)
	if err != nil {
		o.env.RevertToSnapshot(snapshot)
		run.transition(domain.StateReverted)
		run.log.Debug("request reverted", "error", err)
		return nil, err
	}
	o.env.Commit()

	run.transition(domain.StateDone)
	result.Events = run.events
	result.State = run.state
	run.log.Debug("request done", "address", result.Address)
	return result, nil
}

// validate runs every parameter check that must fail before state changes
// and returns the effective salt
func (o *Orchestrator) validate(req *domain.DeploymentRequest) (common.Hash, error) {
	switch req.Kind {
	case domain.KindDeploy:
	case domain.KindDeployAndInit:
		values := domain.Values{}
		if req.Values != nil {
			values = *req.Values
		}
		total, overflow := values.Total()
		if overflow || !total.Eq(req.AttachedValue()) {
			return common.Hash{}, domain.NewFactoryError(domain.InvalidValueSplit, o.factory, domain.StageValidation, nil,
				fmt.Errorf("constructor %s + init call %s != attached %s",
					valueString(values.ConstructorAmount), valueString(values.InitCallAmount), valueString(req.Value)))
		}
	case domain.KindDeployClone:
		if req.Scheme == domain.SchemeRelayIndirected {
			return common.Hash{}, fmt.Errorf("%w: clones are not deployed through a relay", domain.ErrUnknownScheme)
		}
		if req.Implementation == nil {
			return common.Hash{}, fmt.Errorf("%w: clone implementation is required", domain.ErrInvalidAddress)
		}
	default:
		return common.Hash{}, fmt.Errorf("unknown request kind %q", req.Kind)
	}

	if !req.Scheme.UsesSalt() {
		return common.Hash{}, nil
	}
	if req.Salt == nil {
		return domain.GeneratedSalt(o.env.Block(), o.env.ChainID(), req.Caller), nil
	}
	salt, err := domain.GuardSalt(*req.Salt, req.Caller, o.env.ChainID())
	if err != nil {
		return common.Hash{}, domain.NewFactoryError(domain.InvalidSalt, o.factory, domain.StageValidation, nil, err)
	}
	return salt, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *requestRun, salt common.Hash) (*domain.DeploymentResult, error) {
	req := run.req

	strategy, err := o.strategyFor(req.Scheme)
	if err != nil {
		return nil, err
	}

	attached := req.AttachedValue()
	if !attached.IsZero() {
		if err := o.env.Transfer(req.Caller, o.factory, attached); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
		}
	}

	initCode := req.InitCode
	constructorAmount := attached
	callAmount := new(uint256.Int)
	switch req.Kind {
	case domain.KindDeployAndInit:
		if req.Values != nil {
			constructorAmount = orZero(req.Values.ConstructorAmount)
			callAmount = orZero(req.Values.InitCallAmount)
		} else {
			constructorAmount = new(uint256.Int)
		}
	case domain.KindDeployClone:
		initCode = domain.CloneInitCode(*req.Implementation)
		constructorAmount = new(uint256.Int)
		callAmount = attached
	}

	run.transition(domain.StateCreating)
	created, err := strategy.create(ctx, initCode, constructorAmount, salt)
	if err != nil {
		return nil, err
	}
	run.events = append(run.events, created.events...)

	result := &domain.DeploymentResult{
		Address: created.address,
		Scheme:  req.Scheme,
		Salt:    created.salt,
		Relay:   created.relay,
	}
	if req.Kind == domain.KindDeploy {
		return result, nil
	}

	run.transition(domain.StateInitializing)
	ret, err := o.env.Call(o.factory, created.address, req.InitCall, callAmount)
	if err != nil {
		return nil, domain.NewFactoryError(domain.FailedContractInitialisation, created.address, domain.StageInit, ret, err)
	}
	if len(o.env.Code(created.address)) == 0 {
		return nil, domain.NewFactoryError(domain.FailedContractInitialisation, created.address, domain.StageInit, ret, ErrNoCodeAfterInit)
	}

	run.transition(domain.StateRefunding)
	if err := o.refund(req.Refund()); err != nil {
		return nil, err
	}
	return result, nil
}

// refund sends whatever value the factory still holds to recipient
func (o *Orchestrator) refund(recipient common.Address) error {
	balance := o.env.Balance(o.factory)
	if balance.IsZero() {
		return nil
	}
	o.log.Debug("refunding", "recipient", recipient, "amount", balance)
	if ret, err := o.env.Call(o.factory, recipient, nil, balance); err != nil {
		return domain.NewFactoryError(domain.FailedEtherTransfer, recipient, domain.StageRefund, ret, err)
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func valueString(v *uint256.Int) string {
	return orZero(v).Dec()
}
