package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// Address queries. The forms without a deployer use the factory itself,
// which is the account that performs every creation.

// ComputeCreateAddress returns the address the factory creates at nonce
func (f *Factory) ComputeCreateAddress(nonce *big.Int) (common.Address, error) {
	return f.ComputeCreateAddressFor(f.address, nonce)
}

// ComputeCreateAddressFor returns the address deployer creates at nonce
func (f *Factory) ComputeCreateAddressFor(deployer common.Address, nonce *big.Int) (common.Address, error) {
	n, err := domain.ValidateNonce(nonce)
	if err != nil {
		return common.Address{}, domain.NewFactoryError(domain.InvalidNonceValue, f.address, domain.StageValidation, nil, err)
	}
	return domain.DeriveNonceBased(deployer, n), nil
}

// ComputeCreate2Address returns the factory's salt-based address for codeHash
func (f *Factory) ComputeCreate2Address(salt, codeHash common.Hash) common.Address {
	return domain.DeriveSaltBased(f.address, salt, codeHash)
}

// ComputeCreate2AddressFor returns deployer's salt-based address for codeHash
func (f *Factory) ComputeCreate2AddressFor(salt, codeHash common.Hash, deployer common.Address) common.Address {
	return domain.DeriveSaltBased(deployer, salt, codeHash)
}

// ComputeCreate3Address returns the factory's relay-indirected address for salt
func (f *Factory) ComputeCreate3Address(salt common.Hash) common.Address {
	return domain.DeriveRelayIndirected(f.address, salt)
}

// ComputeCreate3AddressFor returns deployer's relay-indirected address for salt
func (f *Factory) ComputeCreate3AddressFor(salt common.Hash, deployer common.Address) common.Address {
	return domain.DeriveRelayIndirected(deployer, salt)
}

// Nonce returns the factory's current account nonce
func (f *Factory) Nonce() uint64 {
	return f.env.Nonce(f.address)
}

// PredictNextCreateAddress returns where the factory's next nonce-based
// deployment lands
func (f *Factory) PredictNextCreateAddress(ctx context.Context) (common.Address, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	return domain.DeriveNonceBased(f.address, f.Nonce()), nil
}

// GuardedSalt returns the salt the factory derives with when caller submits salt
func (f *Factory) GuardedSalt(caller common.Address, salt common.Hash) (common.Hash, error) {
	effective, err := domain.GuardSalt(salt, caller, f.env.ChainID())
	if err != nil {
		return common.Hash{}, domain.NewFactoryError(domain.InvalidSalt, f.address, domain.StageValidation, nil, err)
	}
	return effective, nil
}
