package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/xfactory/internal/adapters/abi"
	"github.com/trebuchet-org/xfactory/internal/adapters/blockchain"
	"github.com/trebuchet-org/xfactory/internal/adapters/evm"
	"github.com/trebuchet-org/xfactory/internal/adapters/fs"
	"github.com/trebuchet-org/xfactory/internal/adapters/interactive"
	"github.com/trebuchet-org/xfactory/internal/adapters/repository/deployments"
	"github.com/trebuchet-org/xfactory/internal/adapters/signer"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	deployments.NewFileRepository,
	wire.Bind(new(usecase.DeploymentRepository), new(*deployments.FileRepository)),

	fs.NewFileWriterAdapter,
	wire.Bind(new(usecase.FileWriter), new(*fs.FileWriterAdapter)),

	fs.NewPlanLoaderAdapter,
	wire.Bind(new(usecase.PlanLoader), new(*fs.PlanLoaderAdapter)),

	fs.NewLocalConfigStoreAdapter,
	wire.Bind(new(usecase.LocalConfigStore), new(*fs.LocalConfigStoreAdapter)),
)

// EVMSet provides the simulated execution environment and the ABI codec
var EVMSet = wire.NewSet(
	evm.NewProvider,
	wire.Bind(new(usecase.NetworkProvider), new(*evm.Provider)),

	abi.NewCodec,
	wire.Bind(new(usecase.ABIProvider), new(*abi.Codec)),

	abi.NewRouter,
	wire.Bind(new(usecase.CallRouter), new(*abi.Router)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.InteractiveSelector), new(*interactive.SelectorAdapter)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewCheckerAdapter,
	wire.Bind(new(usecase.BlockchainChecker), new(*blockchain.CheckerAdapter)),
	wire.Bind(new(usecase.TransactionBroadcaster), new(*blockchain.CheckerAdapter)),
)

// SignerSet provides offline transaction signing
var SignerSet = wire.NewSet(
	signer.NewFactory,
	wire.Bind(new(usecase.SignerFactory), new(*signer.Factory)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	EVMSet,
	InteractiveSet,
	BlockchainSet,
	SignerSet,
)
