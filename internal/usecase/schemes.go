package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// creation is what a strategy produced
type creation struct {
	address common.Address
	salt    *common.Hash
	relay   *common.Address
	events  []domain.EventRecord
}

// creationStrategy creates a contract under one derivation scheme
type creationStrategy interface {
	predict(initCode []byte, salt common.Hash) common.Address
	create(ctx context.Context, initCode []byte, value *uint256.Int, salt common.Hash) (*creation, error)
}

// strategyFor is the single point where the scheme is dispatched
func (o *Orchestrator) strategyFor(scheme domain.Scheme) (creationStrategy, error) {
	switch scheme {
	case domain.SchemeNonceBased:
		return &nonceBased{env: o.env, factory: o.factory}, nil
	case domain.SchemeSaltBased:
		return &saltBased{env: o.env, factory: o.factory}, nil
	case domain.SchemeRelayIndirected:
		return &relayIndirected{factory: o.factory, relays: o.relays}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownScheme, scheme)
	}
}

type nonceBased struct {
	env     ExecutionEnvironment
	factory common.Address
}

func (s *nonceBased) predict([]byte, common.Hash) common.Address {
	return domain.DeriveNonceBased(s.factory, s.env.Nonce(s.factory))
}

func (s *nonceBased) create(_ context.Context, initCode []byte, value *uint256.Int, _ common.Hash) (*creation, error) {
	target := s.predict(initCode, common.Hash{})
	addr, _, err := s.env.Create(s.factory, initCode, value)
	if err != nil || addr != target || len(s.env.Code(target)) == 0 {
		return nil, domain.NewFactoryError(domain.FailedContractCreation, target, domain.StageTarget, nil, err)
	}
	return &creation{
		address: addr,
		events:  []domain.EventRecord{domain.ContractCreated(addr, nil)},
	}, nil
}

type saltBased struct {
	env     ExecutionEnvironment
	factory common.Address
}

func (s *saltBased) predict(initCode []byte, salt common.Hash) common.Address {
	return domain.DeriveSaltBased(s.factory, salt, domain.CodeHash(initCode))
}

func (s *saltBased) create(_ context.Context, initCode []byte, value *uint256.Int, salt common.Hash) (*creation, error) {
	target := s.predict(initCode, salt)
	addr, _, err := s.env.Create2(s.factory, initCode, salt, value)
	if err != nil || addr != target || len(s.env.Code(target)) == 0 {
		return nil, domain.NewFactoryError(domain.FailedContractCreation, target, domain.StageTarget, nil, err)
	}
	return &creation{
		address: addr,
		salt:    &salt,
		events:  []domain.EventRecord{domain.ContractCreated(addr, &salt)},
	}, nil
}

type relayIndirected struct {
	factory common.Address
	relays  *RelayProtocol
}

func (s *relayIndirected) predict(_ []byte, salt common.Hash) common.Address {
	return domain.DeriveRelayIndirected(s.factory, salt)
}

func (s *relayIndirected) create(ctx context.Context, initCode []byte, value *uint256.Int, salt common.Hash) (*creation, error) {
	relay, target, events, err := s.relays.SpawnAndDelegate(ctx, salt, initCode, value)
	if err != nil {
		return nil, err
	}
	return &creation{
		address: target,
		salt:    &salt,
		relay:   &relay.Address,
		events:  append(events, domain.ContractCreated(target, &salt)),
	}, nil
}
