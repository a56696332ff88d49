package abi

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/adapters/abi/bindings"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// CallResult is the outcome of one dispatched call. A reverted call carries
// the ABI encoded factory error in ReturnData.
type CallResult struct {
	Method     string
	ReturnData []byte
	Logs       []*types.Log
	Reverted   bool
	Error      *domain.FactoryError
	Deployment *domain.DeploymentResult
}

// Dispatcher routes ABI encoded calldata to the factory operations
type Dispatcher struct {
	factory *usecase.Factory
	codec   *Codec
	log     *slog.Logger
}

// NewDispatcher creates a dispatcher in front of factory
func NewDispatcher(factory *usecase.Factory, codec *Codec, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		factory: factory,
		codec:   codec,
		log:     log.With("component", "Dispatcher"),
	}
}

// Call decodes calldata by selector and runs the matching operation.
// Factory errors become a reverted result; anything else is returned as an
// error.
func (d *Dispatcher) Call(ctx context.Context, caller common.Address, value *uint256.Int, calldata []byte) (*CallResult, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(calldata))
	}

	method, err := d.codec.abi.MethodById(calldata[:4])
	if err != nil {
		return nil, fmt.Errorf("unknown selector 0x%x: %w", calldata[:4], err)
	}

	args := make(map[string]any)
	if err := method.Inputs.UnpackIntoMap(args, calldata[4:]); err != nil {
		return nil, fmt.Errorf("failed to unpack %s arguments: %w", method.Sig, err)
	}

	if !method.IsPayable() && value != nil && !value.IsZero() {
		return nil, fmt.Errorf("%s is not payable", method.Sig)
	}

	d.log.Debug("dispatching call", "method", method.Sig, "caller", caller, "value", value)

	result := &CallResult{Method: method.Sig}
	opts := usecase.CallOpts{Caller: caller, Value: value}

	var addr common.Address
	switch method.RawName {
	case "computeCreateAddress":
		deployer := d.factory.Address()
		if v, ok := args["deployer"]; ok {
			deployer = v.(common.Address)
		}
		addr, err = d.factory.ComputeCreateAddressFor(deployer, args["nonce"].(*big.Int))
	case "computeCreate2Address":
		deployer := d.factory.Address()
		if v, ok := args["deployer"]; ok {
			deployer = v.(common.Address)
		}
		addr = d.factory.ComputeCreate2AddressFor(hashArg(args, "salt"), hashArg(args, "initCodeHash"), deployer)
	case "computeCreate3Address":
		deployer := d.factory.Address()
		if v, ok := args["deployer"]; ok {
			deployer = v.(common.Address)
		}
		addr = d.factory.ComputeCreate3AddressFor(hashArg(args, "salt"), deployer)
	default:
		var deployment *domain.DeploymentResult
		deployment, err = d.deploy(ctx, method, opts, args)
		if deployment != nil {
			addr = deployment.Address
			result.Deployment = deployment
		}
	}

	if err != nil {
		fe, ok := domain.AsFactoryError(err)
		if !ok {
			return nil, err
		}
		revertData, encErr := d.codec.EncodeError(fe)
		if encErr != nil {
			return nil, encErr
		}
		result.Reverted = true
		result.Error = fe
		result.ReturnData = revertData
		return result, nil
	}

	if result.ReturnData, err = method.Outputs.Pack(addr); err != nil {
		return nil, fmt.Errorf("failed to pack %s result: %w", method.Sig, err)
	}
	if result.Deployment != nil {
		if result.Logs, err = d.codec.EncodeEvents(d.factory.Address(), result.Deployment.Events); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Dispatcher) deploy(ctx context.Context, method *ethabi.Method, opts usecase.CallOpts, args map[string]any) (*domain.DeploymentResult, error) {
	salt := optionalHashArg(args, "salt")
	initCode, _ := args["initCode"].([]byte)
	data, _ := args["data"].([]byte)

	switch method.RawName {
	case "deployCreate":
		return d.factory.DeployCreate(ctx, opts, initCode)
	case "deployCreateAndInit":
		values, err := valuesArg(args)
		if err != nil {
			return nil, err
		}
		return d.factory.DeployCreateAndInit(ctx, opts, initCode, data, values, optionalAddressArg(args, "refundAddress"))
	case "deployCreateClone":
		return d.factory.DeployCreateClone(ctx, opts, args["implementation"].(common.Address), data)
	case "deployCreate2":
		return d.factory.DeployCreate2(ctx, opts, salt, initCode)
	case "deployCreate2AndInit":
		values, err := valuesArg(args)
		if err != nil {
			return nil, err
		}
		return d.factory.DeployCreate2AndInit(ctx, opts, salt, initCode, data, values, optionalAddressArg(args, "refundAddress"))
	case "deployCreate2Clone":
		return d.factory.DeployCreate2Clone(ctx, opts, salt, args["implementation"].(common.Address), data)
	case "deployCreate3":
		return d.factory.DeployCreate3(ctx, opts, salt, initCode)
	case "deployCreate3AndInit":
		values, err := valuesArg(args)
		if err != nil {
			return nil, err
		}
		return d.factory.DeployCreate3AndInit(ctx, opts, salt, initCode, data, values, optionalAddressArg(args, "refundAddress"))
	default:
		return nil, fmt.Errorf("method %s is not dispatchable", method.Sig)
	}
}

func hashArg(args map[string]any, name string) common.Hash {
	raw, _ := args[name].([32]byte)
	return common.Hash(raw)
}

func optionalHashArg(args map[string]any, name string) *common.Hash {
	if _, ok := args[name]; !ok {
		return nil
	}
	h := hashArg(args, name)
	return &h
}

func optionalAddressArg(args map[string]any, name string) *common.Address {
	addr, ok := args[name].(common.Address)
	if !ok {
		return nil
	}
	return &addr
}

func valuesArg(args map[string]any) (domain.Values, error) {
	raw, ok := args["values"]
	if !ok {
		return domain.Values{}, fmt.Errorf("missing values argument")
	}
	values := *ethabi.ConvertType(raw, new(bindings.IXFactoryValues)).(*bindings.IXFactoryValues)

	constructorAmount, overflow := uint256.FromBig(values.ConstructorAmount)
	if overflow {
		return domain.Values{}, fmt.Errorf("constructor amount overflows uint256")
	}
	initCallAmount, overflow := uint256.FromBig(values.InitCallAmount)
	if overflow {
		return domain.Values{}, fmt.Errorf("init call amount overflows uint256")
	}
	return domain.Values{ConstructorAmount: constructorAmount, InitCallAmount: initCallAmount}, nil
}
