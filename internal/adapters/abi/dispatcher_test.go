package abi

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/adapters/abi/bindings"
	"github.com/trebuchet-org/xfactory/internal/adapters/evm"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

var (
	deployer = common.HexToAddress("0xeD456e05CaAb11d66C4c797dD6c1D6f9A7F352b5")
	caller   = common.HexToAddress("0xa11ce00000000000000000000000000000000a11")

	stopContract         = common.FromHex("0x600060005360016000f3")
	revertingConstructor = common.FromHex("0x60006000fd")
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *usecase.Factory) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	network, err := evm.NewNetwork(1, log)
	require.NoError(t, err)
	addr, err := network.InstallFactory(deployer, stopContract)
	require.NoError(t, err)
	require.Equal(t, factoryAddr, addr)
	network.Fund(caller, uint256.NewInt(1_000_000))

	factory := usecase.NewFactory(network, addr, log)
	return NewDispatcher(factory, newTestCodec(t), log), factory
}

func TestDispatchDeployCreate2(t *testing.T) {
	d, factory := newTestDispatcher(t)
	binding := bindings.NewXFactory()
	salt := common.HexToHash("0x01")

	result, err := d.Call(context.Background(), caller, nil, binding.PackDeployCreate2(salt, stopContract))
	require.NoError(t, err)
	require.False(t, result.Reverted)
	assert.Equal(t, "deployCreate2(bytes32,bytes)", result.Method)

	addr, err := binding.UnpackDeployCreate2(result.ReturnData)
	require.NoError(t, err)
	assert.Equal(t, factory.ComputeCreate2Address(salt, domain.CodeHash(stopContract)), addr)

	require.Len(t, result.Logs, 1)
	event, err := binding.UnpackContractCreationEvent(result.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, addr, event.NewContract)
	assert.Equal(t, [32]byte(salt), event.Salt)
}

func TestDispatchDeployCreate3Saltless(t *testing.T) {
	d, _ := newTestDispatcher(t)
	binding := bindings.NewXFactory()

	result, err := d.Call(context.Background(), caller, nil, binding.PackDeployCreate3(stopContract))
	require.NoError(t, err)
	require.False(t, result.Reverted)
	require.NotNil(t, result.Deployment)
	require.NotNil(t, result.Deployment.Relay)

	require.Len(t, result.Logs, 2)
	relay, err := binding.UnpackRelayContractCreationEvent(result.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, *result.Deployment.Relay, relay.Relay)
}

func TestDispatchDeployCreate2AndInitWithValues(t *testing.T) {
	d, _ := newTestDispatcher(t)
	binding := bindings.NewXFactory()
	salt := common.HexToHash("0x02")
	values := bindings.IXFactoryValues{ConstructorAmount: big.NewInt(2), InitCallAmount: big.NewInt(1)}

	result, err := d.Call(context.Background(), caller, uint256.NewInt(3), binding.PackDeployCreate2AndInit2(salt, stopContract, []byte{}, values))
	require.NoError(t, err)
	assert.False(t, result.Reverted)

	result, err = d.Call(context.Background(), caller, uint256.NewInt(4), binding.PackDeployCreate2AndInit2(common.HexToHash("0x03"), stopContract, []byte{}, values))
	require.NoError(t, err)
	require.True(t, result.Reverted)
	assert.Equal(t, domain.InvalidValueSplit, result.Error.Kind)

	unpacked, err := binding.UnpackError(result.ReturnData)
	require.NoError(t, err)
	split, ok := unpacked.(*bindings.XFactoryInvalidValueSplit)
	require.True(t, ok)
	assert.Equal(t, factoryAddr, split.Emitter)
}

func TestDispatchRevertsWithFactoryError(t *testing.T) {
	d, _ := newTestDispatcher(t)
	binding := bindings.NewXFactory()

	result, err := d.Call(context.Background(), caller, nil, binding.PackDeployCreate2(common.HexToHash("0x04"), revertingConstructor))
	require.NoError(t, err)
	require.True(t, result.Reverted)
	assert.Equal(t, domain.FailedContractCreation, result.Error.Kind)
	assert.Empty(t, result.Logs)

	unpacked, err := binding.UnpackError(result.ReturnData)
	require.NoError(t, err)
	assert.IsType(t, &bindings.XFactoryFailedContractCreation{}, unpacked)
}

func TestDispatchComputeQueries(t *testing.T) {
	d, factory := newTestDispatcher(t)
	binding := bindings.NewXFactory()
	salt := common.HexToHash("0x05")
	other := common.HexToAddress("0x2000000000000000000000000000000000000002")

	result, err := d.Call(context.Background(), caller, nil, binding.PackComputeCreate3Address0(salt))
	require.NoError(t, err)
	addr, err := binding.UnpackComputeCreate3Address0(result.ReturnData)
	require.NoError(t, err)
	assert.Equal(t, factory.ComputeCreate3Address(salt), addr)

	result, err = d.Call(context.Background(), caller, nil, binding.PackComputeCreateAddress0(other, big.NewInt(1)))
	require.NoError(t, err)
	addr, err = binding.UnpackComputeCreateAddress0(result.ReturnData)
	require.NoError(t, err)
	assert.Equal(t, domain.DeriveNonceBased(other, 1), addr)

	tooLarge := new(big.Int).SetUint64(^uint64(0))
	result, err = d.Call(context.Background(), caller, nil, binding.PackComputeCreateAddress(tooLarge))
	require.NoError(t, err)
	require.True(t, result.Reverted)
	assert.Equal(t, domain.InvalidNonceValue, result.Error.Kind)
}

func TestDispatchRejectsMalformedCalldata(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Call(context.Background(), caller, nil, []byte{0x01, 0x02})
	assert.Error(t, err)

	_, err = d.Call(context.Background(), caller, nil, common.FromHex("0xdeadbeef"))
	assert.ErrorContains(t, err, "unknown selector")
}

func TestDispatchRejectsValueOnView(t *testing.T) {
	d, _ := newTestDispatcher(t)
	binding := bindings.NewXFactory()

	_, err := d.Call(context.Background(), caller, uint256.NewInt(1), binding.PackComputeCreate3Address0(common.Hash{}))
	assert.ErrorContains(t, err, "not payable")
}
