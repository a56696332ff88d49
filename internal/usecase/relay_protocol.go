package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// RelayProtocol spawns single-use relays and makes each one create exactly
// one contract. The relay's first outgoing creation happens at nonce 1, so
// the final address depends only on the factory and the salt.
type RelayProtocol struct {
	env     ExecutionEnvironment
	nonces  NonceSource
	factory common.Address
	log     *slog.Logger
}

// NewRelayProtocol creates a relay protocol acting on behalf of factory
func NewRelayProtocol(env ExecutionEnvironment, nonces NonceSource, factory common.Address, log *slog.Logger) *RelayProtocol {
	return &RelayProtocol{
		env:     env,
		nonces:  nonces,
		factory: factory,
		log:     log.With("component", "relay"),
	}
}

// Spawn creates the relay for salt and returns it with its creation event
func (p *RelayProtocol) Spawn(salt common.Hash) (*domain.RelayInstance, domain.EventRecord, error) {
	predicted := domain.DeriveRelay(p.factory, salt)

	addr, _, err := p.env.Create2(p.factory, domain.RelayInitCode, salt, new(uint256.Int))
	if err != nil || addr != predicted || len(p.env.Code(predicted)) == 0 {
		p.log.Debug("relay spawn failed", "relay", predicted, "error", err)
		return nil, domain.EventRecord{}, domain.NewFactoryError(
			domain.FailedContractCreation, p.factory, domain.StageRelaySpawn, nil, err)
	}

	relay := &domain.RelayInstance{
		Address: addr,
		Salt:    salt,
		State:   domain.RelaySpawned,
	}
	p.log.Debug("relay spawned", "relay", addr, "salt", salt)
	return relay, domain.RelayCreated(addr, salt), nil
}

// Delegate asks a spawned relay to create initCode with value. The relay is
// consumed whether or not the creation succeeds.
func (p *RelayProtocol) Delegate(ctx context.Context, relay *domain.RelayInstance, initCode []byte, value *uint256.Int) (common.Address, error) {
	if relay.State != domain.RelaySpawned {
		return common.Address{}, fmt.Errorf("%w: %s is %s", domain.ErrRelayConsumed, relay.Address.Hex(), relay.State)
	}
	relay.State = domain.RelayDelegated
	defer func() { relay.State = domain.RelayConsumed }()

	target := relay.Target()
	nonce, err := p.nonces.NonceAt(ctx, relay.Address)
	if err == nil && nonce != 1 {
		err = fmt.Errorf("relay nonce is %d, expected 1", nonce)
	}
	if err != nil {
		return common.Address{}, domain.NewFactoryError(
			domain.FailedContractCreation, relay.Address, domain.StageRelayDelegate, nil, err)
	}

	_, err = p.env.Call(p.factory, relay.Address, initCode, value)
	if err != nil || len(p.env.Code(target)) == 0 {
		p.log.Debug("relay delegation failed", "relay", relay.Address, "target", target, "error", err)
		return common.Address{}, domain.NewFactoryError(
			domain.FailedContractCreation, relay.Address, domain.StageRelayDelegate, nil, err)
	}

	p.log.Debug("relay delegated", "relay", relay.Address, "target", target)
	return target, nil
}

// SpawnAndDelegate spawns the relay for salt and immediately delegates the
// creation of initCode to it
func (p *RelayProtocol) SpawnAndDelegate(ctx context.Context, salt common.Hash, initCode []byte, value *uint256.Int) (*domain.RelayInstance, common.Address, []domain.EventRecord, error) {
	relay, event, err := p.Spawn(salt)
	if err != nil {
		return nil, common.Address{}, nil, err
	}

	target, err := p.Delegate(ctx, relay, initCode, value)
	if err != nil {
		return relay, common.Address{}, nil, err
	}
	return relay, target, []domain.EventRecord{event}, nil
}

// environmentNonces reads nonces straight from an execution environment
type environmentNonces struct {
	env ExecutionEnvironment
}

func (n environmentNonces) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return n.env.Nonce(addr), nil
}
