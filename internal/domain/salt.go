package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// ProtectionFlag is byte 20 of a salt
type ProtectionFlag byte

const (
	ProtectionOff ProtectionFlag = 0x00
	ProtectionOn  ProtectionFlag = 0x01
)

func (f ProtectionFlag) Valid() bool {
	return f == ProtectionOff || f == ProtectionOn
}

func (f ProtectionFlag) String() string {
	switch f {
	case ProtectionOff:
		return "off"
	case ProtectionOn:
		return "on"
	default:
		return fmt.Sprintf("unspecified(0x%02x)", byte(f))
	}
}

// EntropyLength is the number of caller-chosen bytes at the end of a salt
const EntropyLength = 11

// SaltLayout is a decoded salt:
//
//	[0:20]  permissioned sender, zero for none
//	[20]    cross-chain protection flag
//	[21:32] entropy
type SaltLayout struct {
	Raw                common.Hash
	PermissionedSender common.Address
	Protection         ProtectionFlag
	Entropy            [EntropyLength]byte
}

// Permissioned reports whether the salt is reserved for one sender
func (l SaltLayout) Permissioned() bool {
	return l.PermissionedSender != (common.Address{})
}

// DecodeSalt splits a salt into its fields. It never fails; validation
// against a caller is done by GuardSalt.
func DecodeSalt(salt common.Hash) SaltLayout {
	layout := SaltLayout{
		Raw:                salt,
		PermissionedSender: common.BytesToAddress(salt[:common.AddressLength]),
		Protection:         ProtectionFlag(salt[common.AddressLength]),
	}
	copy(layout.Entropy[:], salt[common.AddressLength+1:])
	return layout
}

// EncodeSalt is the inverse of DecodeSalt
func EncodeSalt(sender common.Address, protection ProtectionFlag, entropy [EntropyLength]byte) common.Hash {
	var salt common.Hash
	copy(salt[:common.AddressLength], sender.Bytes())
	salt[common.AddressLength] = byte(protection)
	copy(salt[common.AddressLength+1:], entropy[:])
	return salt
}

// GuardSalt validates salt for caller and returns the effective salt used
// for derivation. A salt permissioned for another sender, or one with an
// unspecified protection flag, is rejected. Protected salts are rehashed
// with the chain ID so the same salt lands on different addresses per chain.
func GuardSalt(salt common.Hash, caller common.Address, chainID uint64) (common.Hash, error) {
	layout := DecodeSalt(salt)

	if layout.Permissioned() && layout.PermissionedSender != caller {
		return common.Hash{}, fmt.Errorf("%w: reserved for %s, caller %s", ErrSaltNotPermitted, layout.PermissionedSender.Hex(), caller.Hex())
	}
	if !layout.Protection.Valid() {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrSaltFlagUnspecified, layout.Protection)
	}

	if layout.Protection == ProtectionOff {
		return salt, nil
	}

	chain := uint256.NewInt(chainID).Bytes32()
	if layout.Permissioned() {
		// abi.encode(caller, chainid, salt)
		return crypto.Keccak256Hash(
			common.LeftPadBytes(caller.Bytes(), 32),
			chain[:],
			salt.Bytes(),
		), nil
	}
	// abi.encodePacked(uint256(chainid), salt)
	return crypto.Keccak256Hash(chain[:], salt.Bytes()), nil
}

// BlockInfo is the slice of block context used to generate salts
type BlockInfo struct {
	Number       uint64
	Timestamp    uint64
	Coinbase     common.Address
	PrevRandao   common.Hash
	AncestorHash common.Hash // hash of block Number-32
}

// GeneratedSalt derives a pseudo-random salt for requests that omit one.
// Generated salts bypass GuardSalt.
func GeneratedSalt(block BlockInfo, chainID uint64, caller common.Address) common.Hash {
	number := uint256.NewInt(block.Number).Bytes32()
	timestamp := uint256.NewInt(block.Timestamp).Bytes32()
	chain := uint256.NewInt(chainID).Bytes32()
	return crypto.Keccak256Hash(
		block.AncestorHash.Bytes(),
		common.LeftPadBytes(block.Coinbase.Bytes(), 32),
		number[:],
		timestamp[:],
		block.PrevRandao.Bytes(),
		chain[:],
		common.LeftPadBytes(caller.Bytes(), 32),
	)
}
