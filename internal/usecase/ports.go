package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

// ExecutionEnvironment is the chain state a factory executes against. It
// provides nonces, balances, code, the creation primitives and
// snapshot-based rollback. Implementations are not safe for concurrent use.
type ExecutionEnvironment interface {
	ChainID() uint64
	Block() domain.BlockInfo
	Nonce(addr common.Address) uint64
	Code(addr common.Address) []byte
	Balance(addr common.Address) *uint256.Int

	// Transfer moves native value between accounts without executing code
	Transfer(from, to common.Address, amount *uint256.Int) error
	// Create runs initCode from caller at caller's current nonce. On failure
	// the returned bytes hold the revert payload, if any.
	Create(caller common.Address, initCode []byte, value *uint256.Int) (common.Address, []byte, error)
	// Create2 runs initCode from caller at the salt-derived address
	Create2(caller common.Address, initCode []byte, salt common.Hash, value *uint256.Int) (common.Address, []byte, error)
	// Call invokes to with input. On failure the returned bytes hold the
	// revert payload, if any.
	Call(caller, to common.Address, input []byte, value *uint256.Int) ([]byte, error)

	// Begin starts a request from caller as a new transaction. State scoped
	// to the previous transaction, such as transient storage, is dropped.
	Begin(caller common.Address)
	Snapshot() int
	RevertToSnapshot(id int)
	Commit()
}

// NonceSource reads the current nonce of an account
type NonceSource interface {
	NonceAt(ctx context.Context, addr common.Address) (uint64, error)
}

// SimulatedNetwork is an in-process chain with the factory installed
type SimulatedNetwork interface {
	ExecutionEnvironment
	NonceSource
	FactoryAddress() common.Address
	Fund(addr common.Address, amount *uint256.Int)
}

// NetworkProvider creates fresh simulated networks
type NetworkProvider interface {
	NewNetwork(ctx context.Context, chainID uint64) (SimulatedNetwork, error)
}

// DeploymentRepository persists the registry of live factory deployments
type DeploymentRepository interface {
	ListDeployments(ctx context.Context) ([]*models.FactoryDeployment, error)
	GetDeployment(ctx context.Context, chainID uint64) (*models.FactoryDeployment, error)
	SaveDeployment(ctx context.Context, deployment *models.FactoryDeployment) error
}

// BlockchainChecker checks on-chain state of a live network
type BlockchainChecker interface {
	NonceSource
	Connect(ctx context.Context, rpcURL string, chainID uint64) error
	CheckDeploymentExists(ctx context.Context, address common.Address) (exists bool, reason string, err error)
	Close()
}

// TransactionBroadcaster submits signed transactions to a live network
type TransactionBroadcaster interface {
	BlockchainChecker
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	// WaitMined polls until the transaction has a receipt or ctx ends
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// TransactionSigner signs transactions offline
type TransactionSigner interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}

// SignerFactory loads a signer from a hex-encoded private key
type SignerFactory interface {
	FromPrivateKey(hexKey string) (TransactionSigner, error)
}

// FileWriter handles file system operations for generated artifacts
type FileWriter interface {
	WriteFile(ctx context.Context, path string, content []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	FileExists(ctx context.Context, path string) (bool, error)
	EnsureDirectory(ctx context.Context, path string) error
}

// PlanLoader reads simulation plans
type PlanLoader interface {
	LoadPlan(ctx context.Context, path string) (*domain.SimulationPlan, error)
}

// CallRouter executes ABI encoded calls against a factory
type CallRouter interface {
	Route(ctx context.Context, factory *Factory, call *domain.RawCall) (*RoutedCall, error)
}

// RoutedCall is the outcome of a routed call. Deployment is nil for
// address queries. A factory rejection is returned as the error.
type RoutedCall struct {
	Method     string
	Address    common.Address
	Deployment *domain.DeploymentResult
}

// ABIProvider exposes the factory's contract interface
type ABIProvider interface {
	FactoryABI() (*abi.ABI, error)
}

// LocalConfigStore persists per-checkout defaults
type LocalConfigStore interface {
	Exists() bool
	Load(ctx context.Context) (*config.LocalConfig, error)
	Save(ctx context.Context, cfg *config.LocalConfig) error
	GetPath() string
}

// InteractiveSelector handles interactive prompts
type InteractiveSelector interface {
	SelectDeployment(ctx context.Context, deployments []*models.FactoryDeployment, prompt string) (*models.FactoryDeployment, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
