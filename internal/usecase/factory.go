package usecase

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// CallOpts identifies who submits a mutation and the value attached to it
type CallOpts struct {
	Caller common.Address
	Value  *uint256.Int
}

// Factory is the public surface of the deployment factory installed at
// Address on one environment. Every operation with a *common.Hash salt
// also serves the salt-less overload: a nil salt is generated from block
// context. A nil refund address refunds the caller.
type Factory struct {
	env          ExecutionEnvironment
	address      common.Address
	orchestrator *Orchestrator
	log          *slog.Logger
}

// NewFactory creates the factory surface for the contract at address
func NewFactory(env ExecutionEnvironment, address common.Address, log *slog.Logger) *Factory {
	return &Factory{
		env:          env,
		address:      address,
		orchestrator: NewOrchestrator(env, address, log),
		log:          log.With("component", "factory", "chain", env.ChainID()),
	}
}

// Address returns the factory's own address
func (f *Factory) Address() common.Address {
	return f.address
}

// ChainID returns the chain the factory runs on
func (f *Factory) ChainID() uint64 {
	return f.env.ChainID()
}

func (f *Factory) submit(ctx context.Context, req *domain.DeploymentRequest) (*domain.DeploymentResult, error) {
	f.log.Debug("submit", "operation", domain.OperationName(req.Kind, req.Scheme), "caller", req.Caller)
	return f.orchestrator.Execute(ctx, req)
}

func (f *Factory) request(opts CallOpts, kind domain.RequestKind, scheme domain.Scheme) *domain.DeploymentRequest {
	return &domain.DeploymentRequest{
		Kind:   kind,
		Scheme: scheme,
		Caller: opts.Caller,
		Value:  opts.Value,
	}
}

// DeployCreate creates initCode at the factory's next nonce-based address
func (f *Factory) DeployCreate(ctx context.Context, opts CallOpts, initCode []byte) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeploy, domain.SchemeNonceBased)
	req.InitCode = initCode
	return f.submit(ctx, req)
}

// DeployCreateAndInit creates initCode, calls it with data and refunds the remainder
func (f *Factory) DeployCreateAndInit(ctx context.Context, opts CallOpts, initCode, data []byte, values domain.Values, refund *common.Address) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeployAndInit, domain.SchemeNonceBased)
	req.InitCode = initCode
	req.InitCall = data
	req.Values = &values
	req.RefundAddress = refund
	return f.submit(ctx, req)
}

// DeployCreateClone creates a minimal proxy to implementation and initializes it
func (f *Factory) DeployCreateClone(ctx context.Context, opts CallOpts, implementation common.Address, data []byte) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeployClone, domain.SchemeNonceBased)
	req.Implementation = &implementation
	req.InitCall = data
	return f.submit(ctx, req)
}

// DeployCreate2 creates initCode at its salt-derived address
func (f *Factory) DeployCreate2(ctx context.Context, opts CallOpts, salt *common.Hash, initCode []byte) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeploy, domain.SchemeSaltBased)
	req.Salt = salt
	req.InitCode = initCode
	return f.submit(ctx, req)
}

// DeployCreate2AndInit creates initCode at its salt-derived address, calls
// it with data and refunds the remainder
func (f *Factory) DeployCreate2AndInit(ctx context.Context, opts CallOpts, salt *common.Hash, initCode, data []byte, values domain.Values, refund *common.Address) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeployAndInit, domain.SchemeSaltBased)
	req.Salt = salt
	req.InitCode = initCode
	req.InitCall = data
	req.Values = &values
	req.RefundAddress = refund
	return f.submit(ctx, req)
}

// DeployCreate2Clone creates a minimal proxy at a salt-derived address
func (f *Factory) DeployCreate2Clone(ctx context.Context, opts CallOpts, salt *common.Hash, implementation common.Address, data []byte) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeployClone, domain.SchemeSaltBased)
	req.Salt = salt
	req.Implementation = &implementation
	req.InitCall = data
	return f.submit(ctx, req)
}

// DeployCreate3 creates initCode through a relay
func (f *Factory) DeployCreate3(ctx context.Context, opts CallOpts, salt *common.Hash, initCode []byte) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeploy, domain.SchemeRelayIndirected)
	req.Salt = salt
	req.InitCode = initCode
	return f.submit(ctx, req)
}

// DeployCreate3AndInit creates initCode through a relay, calls it with data
// and refunds the remainder
func (f *Factory) DeployCreate3AndInit(ctx context.Context, opts CallOpts, salt *common.Hash, initCode, data []byte, values domain.Values, refund *common.Address) (*domain.DeploymentResult, error) {
	req := f.request(opts, domain.KindDeployAndInit, domain.SchemeRelayIndirected)
	req.Salt = salt
	req.InitCode = initCode
	req.InitCall = data
	req.Values = &values
	req.RefundAddress = refund
	return f.submit(ctx, req)
}

// Execute submits a prepared request
func (f *Factory) Execute(ctx context.Context, req *domain.DeploymentRequest) (*domain.DeploymentResult, error) {
	return f.submit(ctx, req)
}
