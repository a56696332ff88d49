package domain

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MaxNonce is the largest nonce an account can use for a creation (2^64-2)
const MaxNonce uint64 = math.MaxUint64 - 1

// RelayInitCode deploys the single-use relay. The relay's runtime
// (363d3d37363d34f0) creates a contract from its calldata and forwards
// the call value to it.
var RelayInitCode = common.FromHex("0x67363d3d37363d34f03d5260086018f3")

// RelayInitCodeHash is keccak256(RelayInitCode)
var RelayInitCodeHash = crypto.Keccak256Hash(RelayInitCode)

// Clone init code halves around the 20-byte implementation address (EIP-1167)
var (
	cloneInitPrefix = common.FromHex("0x3d602d80600a3d3981f3363d3d373d3d3d363d73")
	cloneInitSuffix = common.FromHex("0x5af43d82803e903d91602b57fd5bf3")
)

// DeriveNonceBased returns the address an account creates at the given nonce:
// keccak256(rlp([deployer, nonce]))[12:]
func DeriveNonceBased(deployer common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(deployer, nonce)
}

// DeriveSaltBased returns keccak256(0xff ++ deployer ++ salt ++ codeHash)[12:]
func DeriveSaltBased(deployer common.Address, salt common.Hash, codeHash common.Hash) common.Address {
	return crypto.CreateAddress2(deployer, salt, codeHash.Bytes())
}

// DeriveRelay returns the address of the relay the deployer spawns for salt
func DeriveRelay(deployer common.Address, salt common.Hash) common.Address {
	return DeriveSaltBased(deployer, salt, RelayInitCodeHash)
}

// DeriveRelayIndirected returns the address a relay-based deployment lands
// on. It depends only on the deployer and salt, never on the payload.
func DeriveRelayIndirected(deployer common.Address, salt common.Hash) common.Address {
	return DeriveNonceBased(DeriveRelay(deployer, salt), 1)
}

// CodeHash returns keccak256 of the creation payload
func CodeHash(initCode []byte) common.Hash {
	return crypto.Keccak256Hash(initCode)
}

// CloneInitCode returns the creation payload of a minimal forwarding proxy
// that delegates every call to implementation
func CloneInitCode(implementation common.Address) []byte {
	code := make([]byte, 0, len(cloneInitPrefix)+common.AddressLength+len(cloneInitSuffix))
	code = append(code, cloneInitPrefix...)
	code = append(code, implementation.Bytes()...)
	return append(code, cloneInitSuffix...)
}

// ValidateNonce converts an arbitrary-precision nonce into a usable one
func ValidateNonce(nonce *big.Int) (uint64, error) {
	if nonce == nil || nonce.Sign() < 0 || !nonce.IsUint64() || nonce.Uint64() > MaxNonce {
		return 0, fmt.Errorf("nonce %v outside [0, %d]", nonce, MaxNonce)
	}
	return nonce.Uint64(), nil
}
