package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

// PredictKind selects what PredictAddress computes
type PredictKind string

const (
	PredictCreate  PredictKind = "create"
	PredictCreate2 PredictKind = "create2"
	PredictCreate3 PredictKind = "create3"
	PredictNext    PredictKind = "next"
	PredictSalt    PredictKind = "salt"
)

// PredictParams contains parameters for predicting an address
type PredictParams struct {
	Kind PredictKind
	// ChainID defaults to the selected network, then 1
	ChainID uint64
	// Caller submits the salt. Defaults to the salt's permissioned sender.
	Caller *common.Address
	Salt   common.Hash
	// Raw derives with the salt as given instead of the guarded salt
	Raw      bool
	InitCode []byte
	// Deployer overrides the factory as the creating account
	Deployer *common.Address
	Nonce    *big.Int
}

// PredictResult is a computed address with the inputs that produced it
type PredictResult struct {
	Kind          PredictKind        `json:"kind"`
	ChainID       uint64             `json:"chainId"`
	Deployer      common.Address     `json:"deployer"`
	Address       common.Address     `json:"address,omitempty"`
	Salt          *common.Hash       `json:"salt,omitempty"`
	EffectiveSalt *common.Hash       `json:"effectiveSalt,omitempty"`
	Layout        *domain.SaltLayout `json:"-"`
	CodeHash      *common.Hash       `json:"codeHash,omitempty"`
	Relay         *common.Address    `json:"relay,omitempty"`
	Nonce         *uint64            `json:"nonce,omitempty"`
	// Live is set when the nonce was read from a live network
	Live bool `json:"live"`
}

// PredictAddress computes factory addresses without deploying
type PredictAddress struct {
	config   *config.RuntimeConfig
	networks NetworkProvider
	checker  BlockchainChecker
	log      *slog.Logger
}

// NewPredictAddress creates a new PredictAddress use case
func NewPredictAddress(cfg *config.RuntimeConfig, networks NetworkProvider, checker BlockchainChecker, log *slog.Logger) *PredictAddress {
	return &PredictAddress{
		config:   cfg,
		networks: networks,
		checker:  checker,
		log:      log.With("component", "predict"),
	}
}

// Run computes the address described by params
func (uc *PredictAddress) Run(ctx context.Context, params PredictParams) (*PredictResult, error) {
	chainID := params.ChainID
	if chainID == 0 && uc.config.Network != nil {
		chainID = uc.config.Network.ChainID
	}
	if chainID == 0 {
		chainID = 1
	}

	network, err := uc.networks.NewNetwork(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	factory := NewFactory(network, network.FactoryAddress(), uc.log)

	result := &PredictResult{
		Kind:     params.Kind,
		ChainID:  chainID,
		Deployer: factory.Address(),
	}
	if params.Deployer != nil {
		result.Deployer = *params.Deployer
	}

	switch params.Kind {
	case PredictCreate:
		if params.Nonce == nil {
			return nil, fmt.Errorf("create requires a nonce")
		}
		addr, err := factory.ComputeCreateAddressFor(result.Deployer, params.Nonce)
		if err != nil {
			return nil, err
		}
		nonce := params.Nonce.Uint64()
		result.Address = addr
		result.Nonce = &nonce

	case PredictNext:
		return uc.predictNext(ctx, factory, result)

	case PredictCreate2:
		if len(params.InitCode) == 0 {
			return nil, fmt.Errorf("create2 requires init code")
		}
		effective, err := uc.effectiveSalt(factory, params, result)
		if err != nil {
			return nil, err
		}
		codeHash := domain.CodeHash(params.InitCode)
		result.CodeHash = &codeHash
		result.Address = factory.ComputeCreate2AddressFor(effective, codeHash, result.Deployer)

	case PredictCreate3:
		effective, err := uc.effectiveSalt(factory, params, result)
		if err != nil {
			return nil, err
		}
		relay := domain.DeriveRelay(result.Deployer, effective)
		result.Relay = &relay
		result.Address = factory.ComputeCreate3AddressFor(effective, result.Deployer)

	case PredictSalt:
		if _, err := uc.effectiveSalt(factory, params, result); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown prediction %q", params.Kind)
	}

	uc.log.Debug("predicted", "kind", params.Kind, "chain", chainID, "address", result.Address)
	return result, nil
}

// effectiveSalt records the submitted and effective salt on result
func (uc *PredictAddress) effectiveSalt(factory *Factory, params PredictParams, result *PredictResult) (common.Hash, error) {
	salt := params.Salt
	layout := domain.DecodeSalt(salt)
	result.Salt = &salt
	result.Layout = &layout

	if params.Raw {
		result.EffectiveSalt = &salt
		return salt, nil
	}

	caller := layout.PermissionedSender
	if params.Caller != nil {
		caller = *params.Caller
	}
	effective, err := factory.GuardedSalt(caller, salt)
	if err != nil {
		return common.Hash{}, err
	}
	result.EffectiveSalt = &effective
	return effective, nil
}

// predictNext reads the deployer nonce from the selected network when it has
// an RPC endpoint, otherwise from a freshly installed simulated factory
func (uc *PredictAddress) predictNext(ctx context.Context, factory *Factory, result *PredictResult) (*PredictResult, error) {
	network := uc.config.Network
	if network == nil || network.RPCURL == "" {
		if result.Deployer != factory.Address() {
			return nil, fmt.Errorf("next for a custom deployer requires a network with an RPC URL")
		}
		addr, err := factory.PredictNextCreateAddress(ctx)
		if err != nil {
			return nil, err
		}
		nonce := factory.Nonce()
		result.Address = addr
		result.Nonce = &nonce
		return result, nil
	}

	if err := uc.checker.Connect(ctx, network.RPCURL, network.ChainID); err != nil {
		return nil, fmt.Errorf("network %s: %w", network.Name, err)
	}
	defer uc.checker.Close()

	nonce, err := uc.checker.NonceAt(ctx, result.Deployer)
	if err != nil {
		return nil, err
	}
	result.ChainID = network.ChainID
	result.Address = domain.DeriveNonceBased(result.Deployer, nonce)
	result.Nonce = &nonce
	result.Live = true
	return result, nil
}
