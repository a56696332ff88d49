package usecase

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
	"github.com/trebuchet-org/xfactory/internal/domain"
)

var (
	alice   = common.HexToAddress("0xa11ce00000000000000000000000000000000a11")
	bob     = common.HexToAddress("0xb0b0000000000000000000000000000000000b0b")
	payload = []byte{0x60, 0x2a, 0x60, 0x00}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFactory(t *testing.T, chainID uint64) (*Factory, *fakeEnv) {
	t.Helper()
	env := newFakeEnv(chainID)
	env.fund(alice, 100)
	env.fund(bob, 100)
	return NewFactory(env, fakeFactory, testLogger()), env
}

func value(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func hashPtr(h common.Hash) *common.Hash {
	return &h
}

func requireFactoryError(t *testing.T, err error, kind domain.ErrorKind) *domain.FactoryError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	fe, ok := domain.AsFactoryError(err)
	require.True(t, ok)
	return fe
}

func TestDeployCreate2ExampleScenario(t *testing.T) {
	f, env := newTestFactory(t, 1)
	ctx := context.Background()
	salt := common.Hash{}

	expected := domain.DeriveSaltBased(f.Address(), salt, domain.CodeHash(payload))

	result, err := f.DeployCreate2(ctx, CallOpts{Caller: alice}, &salt, payload)
	require.NoError(t, err)

	assert.Equal(t, expected, result.Address)
	assert.Equal(t, domain.StateDone, result.State)
	require.Len(t, result.Events, 1)
	assert.Equal(t, domain.ContractCreated(expected, &salt), result.Events[0])
	assert.Equal(t, expected, f.ComputeCreate2Address(salt, domain.CodeHash(payload)))
	assert.Equal(t, expected, f.ComputeCreate2AddressFor(salt, domain.CodeHash(payload), f.Address()))
	assert.Equal(t, payload, env.Code(expected))
	assert.Equal(t, 1, env.commits)
}

func TestDeployCreate2NoSilentDoubleDeploy(t *testing.T) {
	f, env := newTestFactory(t, 1)
	ctx := context.Background()
	salt := common.HexToHash("0x1234")

	first, err := f.DeployCreate2(ctx, CallOpts{Caller: alice}, &salt, payload)
	require.NoError(t, err)
	nonce := env.Nonce(f.Address())

	_, err = f.DeployCreate2(ctx, CallOpts{Caller: alice}, &salt, payload)
	fe := requireFactoryError(t, err, domain.FailedContractCreation)
	assert.Equal(t, first.Address, fe.Emitter)
	assert.Equal(t, domain.StageTarget, fe.Stage)
	assert.Equal(t, nonce, env.Nonce(f.Address()))
}

func TestDeployCreate(t *testing.T) {
	f, env := newTestFactory(t, 1)
	ctx := context.Background()

	predicted, err := f.PredictNextCreateAddress(ctx)
	require.NoError(t, err)
	viaQuery, err := f.ComputeCreateAddress(big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, predicted, viaQuery)

	result, err := f.DeployCreate(ctx, CallOpts{Caller: alice, Value: value(5)}, payload)
	require.NoError(t, err)
	assert.Equal(t, predicted, result.Address)
	assert.Nil(t, result.Salt)
	assert.Equal(t, []domain.EventRecord{domain.ContractCreated(predicted, nil)}, result.Events)
	assert.Equal(t, uint64(2), env.Nonce(f.Address()))
	assert.Equal(t, value(5), env.Balance(predicted))
	assert.Equal(t, value(95), env.Balance(alice))

	next, err := f.PredictNextCreateAddress(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, predicted, next)
}

func TestDeployCreateConstructorRevert(t *testing.T) {
	f, env := newTestFactory(t, 1)
	ctx := context.Background()

	target, err := f.PredictNextCreateAddress(ctx)
	require.NoError(t, err)

	_, err = f.DeployCreate(ctx, CallOpts{Caller: alice, Value: value(3)}, []byte{0xfd, 0x01})
	fe := requireFactoryError(t, err, domain.FailedContractCreation)
	assert.Equal(t, target, fe.Emitter)
	assert.Empty(t, fe.RevertData)
	assert.Equal(t, uint64(1), env.Nonce(f.Address()))
	assert.Equal(t, value(100), env.Balance(alice))
	assert.True(t, env.Balance(f.Address()).IsZero())
}

func TestDeployCreateEmptyRuntime(t *testing.T) {
	f, _ := newTestFactory(t, 1)
	_, err := f.DeployCreate(context.Background(), CallOpts{Caller: alice}, []byte{0xc0})
	requireFactoryError(t, err, domain.FailedContractCreation)
}

func TestDeployCreate3PayloadIndependence(t *testing.T) {
	salt := common.HexToHash("0xc3")
	other := []byte{0x60, 0x01, 0x60, 0x02, 0x01}

	f1, env1 := newTestFactory(t, 1)
	f2, _ := newTestFactory(t, 1)

	r1, err := f1.DeployCreate3(context.Background(), CallOpts{Caller: alice}, &salt, payload)
	require.NoError(t, err)
	r2, err := f2.DeployCreate3(context.Background(), CallOpts{Caller: alice}, &salt, other)
	require.NoError(t, err)

	assert.Equal(t, r1.Address, r2.Address)
	assert.Equal(t, f1.ComputeCreate3Address(salt), r1.Address)
	assert.Equal(t, f1.ComputeCreate3AddressFor(salt, f1.Address()), r1.Address)

	relay := domain.DeriveRelay(f1.Address(), salt)
	require.NotNil(t, r1.Relay)
	assert.Equal(t, relay, *r1.Relay)
	assert.Equal(t, []domain.EventRecord{
		domain.RelayCreated(relay, salt),
		domain.ContractCreated(r1.Address, &salt),
	}, r1.Events)
	assert.Equal(t, payload, env1.Code(r1.Address))
	assert.Equal(t, uint64(2), env1.Nonce(relay))
}

func TestDeployCreate3Failures(t *testing.T) {
	ctx := context.Background()
	salt := common.HexToHash("0xc3")

	t.Run("delegated creation fails with relay as emitter", func(t *testing.T) {
		f, env := newTestFactory(t, 1)
		_, err := f.DeployCreate3(ctx, CallOpts{Caller: alice}, &salt, []byte{0xfd})
		fe := requireFactoryError(t, err, domain.FailedContractCreation)
		relay := domain.DeriveRelay(f.Address(), salt)
		assert.Equal(t, relay, fe.Emitter)
		assert.Equal(t, domain.StageRelayDelegate, fe.Stage)
		assert.Empty(t, env.Code(relay))
	})

	t.Run("second spawn fails with factory as emitter", func(t *testing.T) {
		f, _ := newTestFactory(t, 1)
		_, err := f.DeployCreate3(ctx, CallOpts{Caller: alice}, &salt, payload)
		require.NoError(t, err)

		_, err = f.DeployCreate3(ctx, CallOpts{Caller: alice}, &salt, payload)
		fe := requireFactoryError(t, err, domain.FailedContractCreation)
		assert.Equal(t, f.Address(), fe.Emitter)
		assert.Equal(t, domain.StageRelaySpawn, fe.Stage)
	})
}

func TestSaltGuardRejection(t *testing.T) {
	ctx := context.Background()
	var entropy [domain.EntropyLength]byte

	tests := []struct {
		name string
		salt common.Hash
	}{
		{"reserved for another sender", domain.EncodeSalt(alice, domain.ProtectionOff, entropy)},
		{"unspecified protection flag", domain.EncodeSalt(common.Address{}, domain.ProtectionFlag(0x02), entropy)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, env := newTestFactory(t, 1)
			_, err := f.DeployCreate2(ctx, CallOpts{Caller: bob, Value: value(1)}, hashPtr(tt.salt), payload)
			fe := requireFactoryError(t, err, domain.InvalidSalt)
			assert.Equal(t, f.Address(), fe.Emitter)
			assert.Equal(t, domain.StageValidation, fe.Stage)
			assert.Equal(t, uint64(1), env.Nonce(f.Address()))
			assert.Equal(t, value(100), env.Balance(bob))
			assert.Empty(t, env.snapshots)

			_, err = f.DeployCreate3(ctx, CallOpts{Caller: bob}, hashPtr(tt.salt), payload)
			requireFactoryError(t, err, domain.InvalidSalt)

			_, err = f.GuardedSalt(bob, tt.salt)
			requireFactoryError(t, err, domain.InvalidSalt)
		})
	}
}

func TestPermissionedSaltForCaller(t *testing.T) {
	var entropy [domain.EntropyLength]byte
	salt := domain.EncodeSalt(alice, domain.ProtectionOff, entropy)

	f, _ := newTestFactory(t, 1)
	result, err := f.DeployCreate2(context.Background(), CallOpts{Caller: alice}, &salt, payload)
	require.NoError(t, err)
	assert.Equal(t, f.ComputeCreate2Address(salt, domain.CodeHash(payload)), result.Address)
}

func TestCrossChainProtection(t *testing.T) {
	ctx := context.Background()
	var entropy [domain.EntropyLength]byte
	entropy[0] = 0x42

	deployOn := func(chainID uint64, salt common.Hash) *domain.DeploymentResult {
		f, _ := newTestFactory(t, chainID)
		result, err := f.DeployCreate2(ctx, CallOpts{Caller: alice}, &salt, payload)
		require.NoError(t, err)
		return result
	}

	t.Run("protected salts diverge", func(t *testing.T) {
		salt := domain.EncodeSalt(alice, domain.ProtectionOn, entropy)
		onOne := deployOn(1, salt)
		onTen := deployOn(10, salt)
		assert.NotEqual(t, onOne.Address, onTen.Address)
		assert.NotEqual(t, salt, *onOne.Salt)
	})

	t.Run("unprotected salts converge", func(t *testing.T) {
		salt := domain.EncodeSalt(alice, domain.ProtectionOff, entropy)
		onOne := deployOn(1, salt)
		onTen := deployOn(10, salt)
		assert.Equal(t, onOne.Address, onTen.Address)
		assert.Equal(t, salt, *onOne.Salt)
	})

	t.Run("guarded salt matches deployment", func(t *testing.T) {
		salt := domain.EncodeSalt(common.Address{}, domain.ProtectionOn, entropy)
		f, _ := newTestFactory(t, 5)
		effective, err := f.GuardedSalt(alice, salt)
		require.NoError(t, err)
		result, err := f.DeployCreate3(ctx, CallOpts{Caller: alice}, &salt, payload)
		require.NoError(t, err)
		assert.Equal(t, f.ComputeCreate3Address(effective), result.Address)
	})
}

func TestGeneratedSalt(t *testing.T) {
	f, env := newTestFactory(t, 1)
	ctx := context.Background()

	result, err := f.DeployCreate2(ctx, CallOpts{Caller: alice}, nil, payload)
	require.NoError(t, err)

	expected := domain.GeneratedSalt(env.Block(), 1, alice)
	require.NotNil(t, result.Salt)
	assert.Equal(t, expected, *result.Salt)
	assert.Equal(t, f.ComputeCreate2Address(expected, domain.CodeHash(payload)), result.Address)
}

func TestDeployAndInitValueConservation(t *testing.T) {
	ctx := context.Background()
	refund := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	values := domain.Values{ConstructorAmount: value(2), InitCallAmount: value(1)}

	t.Run("matching total succeeds without refund", func(t *testing.T) {
		f, env := newTestFactory(t, 1)
		target, err := f.PredictNextCreateAddress(ctx)
		require.NoError(t, err)

		result, err := f.DeployCreateAndInit(ctx, CallOpts{Caller: alice, Value: value(3)}, payload, []byte{0x01}, values, &refund)
		require.NoError(t, err)
		assert.Equal(t, target, result.Address)
		assert.Equal(t, value(3), env.Balance(target))
		assert.True(t, env.Balance(refund).IsZero())
		assert.True(t, env.Balance(f.Address()).IsZero())
		assert.Equal(t, value(97), env.Balance(alice))
	})

	t.Run("mismatched total is rejected before creation", func(t *testing.T) {
		f, env := newTestFactory(t, 1)
		target, err := f.PredictNextCreateAddress(ctx)
		require.NoError(t, err)

		_, err = f.DeployCreateAndInit(ctx, CallOpts{Caller: alice, Value: value(4)}, payload, []byte{0x01}, values, &refund)
		fe := requireFactoryError(t, err, domain.InvalidValueSplit)
		assert.Equal(t, domain.ClassParameterValidation, fe.Kind.Class())
		assert.Empty(t, env.Code(target))
		assert.Equal(t, value(100), env.Balance(alice))
		assert.Equal(t, uint64(1), env.Nonce(f.Address()))
		assert.Empty(t, env.snapshots)
	})

	t.Run("unset values with attached value is rejected", func(t *testing.T) {
		f, _ := newTestFactory(t, 1)
		salt := common.Hash{}
		_, err := f.DeployCreate2AndInit(ctx, CallOpts{Caller: alice, Value: value(1)}, &salt, payload, nil, domain.Values{}, nil)
		requireFactoryError(t, err, domain.InvalidValueSplit)
	})
}

func TestDeployAndInitRefund(t *testing.T) {
	ctx := context.Background()
	refund := common.HexToAddress("0x00000000000000000000000000000000000000ee")

	f, env := newTestFactory(t, 1)
	// value stranded on the factory from an earlier plain transfer
	env.fund(f.Address(), 7)

	salt := common.HexToHash("0x99")
	result, err := f.DeployCreate2AndInit(ctx, CallOpts{Caller: alice, Value: value(3)}, &salt, payload, nil,
		domain.Values{ConstructorAmount: value(2), InitCallAmount: value(1)}, &refund)
	require.NoError(t, err)
	assert.Equal(t, value(3), env.Balance(result.Address))
	assert.Equal(t, value(7), env.Balance(refund))
	assert.True(t, env.Balance(f.Address()).IsZero())

	t.Run("defaults to caller", func(t *testing.T) {
		f, env := newTestFactory(t, 1)
		env.fund(f.Address(), 4)
		_, err := f.DeployCreate3AndInit(ctx, CallOpts{Caller: bob}, &salt, payload, nil, domain.Values{}, nil)
		require.NoError(t, err)
		assert.Equal(t, value(104), env.Balance(bob))
	})
}

func TestDeployAndInitAtomicRollback(t *testing.T) {
	ctx := context.Background()
	// deploys runtime that reverts with 0xdeadbeef on every call
	reverting := []byte{0xc0, 0xfd, 0xde, 0xad, 0xbe, 0xef}
	salt := common.HexToHash("0x77")

	for _, scheme := range []domain.Scheme{domain.SchemeNonceBased, domain.SchemeSaltBased, domain.SchemeRelayIndirected} {
		t.Run(string(scheme), func(t *testing.T) {
			f, env := newTestFactory(t, 1)
			req := &domain.DeploymentRequest{
				Kind:     domain.KindDeployAndInit,
				Scheme:   scheme,
				Caller:   alice,
				Value:    value(3),
				InitCode: reverting,
				Salt:     &salt,
				InitCall: []byte{0x01},
				Values:   &domain.Values{ConstructorAmount: value(2), InitCallAmount: value(1)},
			}

			var target common.Address
			switch scheme {
			case domain.SchemeNonceBased:
				target = domain.DeriveNonceBased(f.Address(), env.Nonce(f.Address()))
			case domain.SchemeSaltBased:
				target = f.ComputeCreate2Address(salt, domain.CodeHash(reverting))
			case domain.SchemeRelayIndirected:
				target = f.ComputeCreate3Address(salt)
			}

			_, err := f.Execute(ctx, req)
			fe := requireFactoryError(t, err, domain.FailedContractInitialisation)
			assert.Equal(t, target, fe.Emitter)
			assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, fe.RevertData)
			assert.Equal(t, domain.StageInit, fe.Stage)

			assert.Empty(t, env.Code(target))
			assert.Equal(t, value(100), env.Balance(alice))
			assert.True(t, env.Balance(f.Address()).IsZero())
			assert.Equal(t, uint64(1), env.Nonce(f.Address()))
			assert.Zero(t, env.commits)
		})
	}
}

func TestDeployAndInitRequiresCodeAfterInit(t *testing.T) {
	ctx := context.Background()
	f, env := newTestFactory(t, 1)
	// runtime that removes itself when called
	destructing := []byte{0xc0, 0xff}
	target := domain.DeriveNonceBased(f.Address(), env.Nonce(f.Address()))

	_, err := f.DeployCreateAndInit(ctx, CallOpts{Caller: alice, Value: value(1)}, destructing, []byte{0x01},
		domain.Values{InitCallAmount: value(1)}, nil)
	fe := requireFactoryError(t, err, domain.FailedContractInitialisation)
	assert.ErrorIs(t, err, ErrNoCodeAfterInit)
	assert.Equal(t, target, fe.Emitter)
	assert.Equal(t, domain.StageInit, fe.Stage)

	assert.Empty(t, env.Code(target))
	assert.Equal(t, value(100), env.Balance(alice))
	assert.Equal(t, uint64(1), env.Nonce(f.Address()))
	assert.Zero(t, env.commits)
}

func TestEveryRequestBeginsATransaction(t *testing.T) {
	ctx := context.Background()
	f, env := newTestFactory(t, 1)

	_, err := f.DeployCreate(ctx, CallOpts{Caller: alice}, payload)
	require.NoError(t, err)
	salt := common.HexToHash("0x99")
	_, err = f.DeployCreate2(ctx, CallOpts{Caller: bob}, &salt, payload)
	require.NoError(t, err)

	assert.Equal(t, []common.Address{alice, bob}, env.begins)
}

func TestRefundRejected(t *testing.T) {
	ctx := context.Background()
	f, env := newTestFactory(t, 1)
	env.fund(f.Address(), 1)

	// a contract that rejects every call
	rejecting, err := f.DeployCreate(ctx, CallOpts{Caller: alice}, []byte{0xc0, 0xfd, 0x0b, 0xad})
	require.NoError(t, err)
	recipient := rejecting.Address

	salt := common.HexToHash("0x55")
	target := f.ComputeCreate2Address(salt, domain.CodeHash(payload))
	_, err = f.DeployCreate2AndInit(ctx, CallOpts{Caller: alice}, &salt, payload, nil, domain.Values{}, &recipient)
	fe := requireFactoryError(t, err, domain.FailedEtherTransfer)
	assert.Equal(t, recipient, fe.Emitter)
	assert.Equal(t, []byte{0x0b, 0xad}, fe.RevertData)
	assert.Equal(t, domain.StageRefund, fe.Stage)
	assert.Empty(t, env.Code(target))
	assert.Equal(t, value(1), env.Balance(f.Address()))
}

func TestDeployClone(t *testing.T) {
	ctx := context.Background()
	impl := common.HexToAddress("0x1111111111111111111111111111111111111111")

	t.Run("nonce-based clone receives the attached value", func(t *testing.T) {
		f, env := newTestFactory(t, 1)
		target, err := f.PredictNextCreateAddress(ctx)
		require.NoError(t, err)

		result, err := f.DeployCreateClone(ctx, CallOpts{Caller: alice, Value: value(4)}, impl, []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, target, result.Address)
		assert.Equal(t, domain.CloneInitCode(impl), env.Code(target))
		assert.Equal(t, value(4), env.Balance(target))
	})

	t.Run("salt-based clone", func(t *testing.T) {
		f, _ := newTestFactory(t, 1)
		salt := common.HexToHash("0xc10e")
		result, err := f.DeployCreate2Clone(ctx, CallOpts{Caller: alice}, &salt, impl, []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, f.ComputeCreate2Address(salt, domain.CodeHash(domain.CloneInitCode(impl))), result.Address)
	})

	t.Run("relay clones are rejected", func(t *testing.T) {
		f, _ := newTestFactory(t, 1)
		_, err := f.Execute(ctx, &domain.DeploymentRequest{
			Kind:           domain.KindDeployClone,
			Scheme:         domain.SchemeRelayIndirected,
			Caller:         alice,
			Implementation: &impl,
		})
		assert.ErrorIs(t, err, domain.ErrUnknownScheme)
	})
}

func TestInsufficientFunds(t *testing.T) {
	f, env := newTestFactory(t, 1)
	_, err := f.DeployCreate(context.Background(), CallOpts{Caller: alice, Value: value(1000)}, payload)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, uint64(1), env.Nonce(f.Address()))
}

func TestComputeCreateAddressInvalidNonce(t *testing.T) {
	f, _ := newTestFactory(t, 1)

	_, err := f.ComputeCreateAddress(new(big.Int).SetUint64(domain.MaxNonce + 1))
	fe := requireFactoryError(t, err, domain.InvalidNonceValue)
	assert.Equal(t, f.Address(), fe.Emitter)

	addr, err := f.ComputeCreateAddressFor(alice, new(big.Int).SetUint64(domain.MaxNonce))
	require.NoError(t, err)
	assert.Equal(t, domain.DeriveNonceBased(alice, domain.MaxNonce), addr)
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	f, env := newTestFactory(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.DeployCreate(ctx, CallOpts{Caller: alice}, payload)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), env.Nonce(f.Address()))
}
