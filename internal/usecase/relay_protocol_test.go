package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// MockNonceSource is a mock implementation of NonceSource
type MockNonceSource struct {
	mock.Mock
}

func (m *MockNonceSource) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(uint64), args.Error(1)
}

func TestRelayProtocolLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newFakeEnv(1)
	salt := common.HexToHash("0xabc")
	relayAddr := domain.DeriveRelay(fakeFactory, salt)

	nonces := new(MockNonceSource)
	nonces.On("NonceAt", ctx, relayAddr).Return(uint64(1), nil).Once()

	p := NewRelayProtocol(env, nonces, fakeFactory, testLogger())

	relay, event, err := p.Spawn(salt)
	require.NoError(t, err)
	assert.Equal(t, relayAddr, relay.Address)
	assert.Equal(t, domain.RelaySpawned, relay.State)
	assert.Equal(t, domain.RelayCreated(relayAddr, salt), event)

	target, err := p.Delegate(ctx, relay, payload, new(uint256.Int))
	require.NoError(t, err)
	assert.Equal(t, domain.DeriveNonceBased(relayAddr, 1), target)
	assert.Equal(t, domain.DeriveRelayIndirected(fakeFactory, salt), target)
	assert.Equal(t, domain.RelayConsumed, relay.State)

	_, err = p.Delegate(ctx, relay, payload, new(uint256.Int))
	assert.ErrorIs(t, err, domain.ErrRelayConsumed)

	nonces.AssertExpectations(t)
}

func TestRelayProtocolUnexpectedNonce(t *testing.T) {
	ctx := context.Background()
	env := newFakeEnv(1)
	salt := common.HexToHash("0xabc")

	nonces := new(MockNonceSource)
	nonces.On("NonceAt", ctx, mock.Anything).Return(uint64(2), nil)

	p := NewRelayProtocol(env, nonces, fakeFactory, testLogger())
	relay, _, err := p.Spawn(salt)
	require.NoError(t, err)

	_, err = p.Delegate(ctx, relay, payload, new(uint256.Int))
	fe := requireFactoryError(t, err, domain.FailedContractCreation)
	assert.Equal(t, relay.Address, fe.Emitter)
	assert.Equal(t, domain.StageRelayDelegate, fe.Stage)
	assert.Equal(t, domain.RelayConsumed, relay.State)
	assert.Empty(t, env.Code(relay.Target()))
}

func TestRelayProtocolNonceSourceError(t *testing.T) {
	ctx := context.Background()
	env := newFakeEnv(1)
	boom := errors.New("rpc unavailable")

	nonces := new(MockNonceSource)
	nonces.On("NonceAt", ctx, mock.Anything).Return(uint64(0), boom)

	p := NewRelayProtocol(env, nonces, fakeFactory, testLogger())
	_, _, _, err := p.SpawnAndDelegate(ctx, common.HexToHash("0x01"), payload, new(uint256.Int))
	assert.ErrorIs(t, err, domain.FailedContractCreation)
	assert.ErrorIs(t, err, boom)
}

func TestRelayProtocolSpawnCollision(t *testing.T) {
	env := newFakeEnv(1)
	salt := common.HexToHash("0xabc")
	p := NewRelayProtocol(env, environmentNonces{env: env}, fakeFactory, testLogger())

	_, _, err := p.Spawn(salt)
	require.NoError(t, err)

	_, _, err = p.Spawn(salt)
	fe := requireFactoryError(t, err, domain.FailedContractCreation)
	assert.Equal(t, fakeFactory, fe.Emitter)
	assert.Equal(t, domain.StageRelaySpawn, fe.Stage)
}
