package evm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

const (
	// callGas is the gas every top-level creation and call runs with
	callGas uint64 = 30_000_000

	simulatedBlock     uint64 = 1_000
	simulatedTimestamp uint64 = 1_700_000_000
)

// ErrInsufficientBalance is returned by Transfer when the sender cannot pay
var ErrInsufficientBalance = errors.New("insufficient balance for transfer")

// Network is an in-process chain backed by go-ethereum's EVM and an
// in-memory state database
type Network struct {
	chainID uint64
	statedb *state.StateDB
	evm     *vm.EVM
	rules   params.Rules
	block   domain.BlockInfo
	factory common.Address
	log     *slog.Logger
}

// NewNetwork creates an empty chain with every fork up to the latest active
func NewNetwork(chainID uint64, log *slog.Logger) (*Network, error) {
	if chainID == 0 {
		return nil, domain.ErrInvalidChainID
	}

	statedb, err := state.New(types.EmptyRootHash, state.NewDatabaseForTesting())
	if err != nil {
		return nil, fmt.Errorf("failed to create state: %w", err)
	}

	chainConfig := *params.AllDevChainProtocolChanges
	chainConfig.ChainID = new(big.Int).SetUint64(chainID)

	block := domain.BlockInfo{
		Number:       simulatedBlock,
		Timestamp:    simulatedTimestamp,
		Coinbase:     common.BytesToAddress(crypto.Keccak256([]byte("coinbase"))),
		PrevRandao:   blockHash(chainID, simulatedBlock+1),
		AncestorHash: blockHash(chainID, simulatedBlock-32),
	}
	random := block.PrevRandao

	blockCtx := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash: func(n uint64) common.Hash {
			return blockHash(chainID, n)
		},
		Coinbase:    block.Coinbase,
		GasLimit:    callGas,
		BlockNumber: new(big.Int).SetUint64(block.Number),
		Time:        block.Timestamp,
		Difficulty:  new(big.Int),
		BaseFee:     new(big.Int),
		BlobBaseFee: new(big.Int),
		Random:      &random,
	}

	evm := vm.NewEVM(blockCtx, statedb, &chainConfig, vm.Config{})
	evm.SetTxContext(vm.TxContext{GasPrice: new(big.Int)})

	return &Network{
		chainID: chainID,
		statedb: statedb,
		evm:     evm,
		rules:   chainConfig.Rules(blockCtx.BlockNumber, blockCtx.Random != nil, blockCtx.Time),
		block:   block,
		log:     log.With("component", "evm", "chain", chainID),
	}, nil
}

// blockHash is the synthetic hash of block n on chain
func blockHash(chainID, n uint64) common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], chainID)
	binary.BigEndian.PutUint64(buf[8:], n)
	return crypto.Keccak256Hash(buf[:])
}

// InstallFactory replays the factory's deployment: deployer creates
// initCode at its nonce 0, so the factory lands on the same address on
// every network
func (n *Network) InstallFactory(deployer common.Address, initCode []byte) (common.Address, error) {
	if nonce := n.statedb.GetNonce(deployer); nonce != 0 {
		return common.Address{}, fmt.Errorf("factory deployer %s already used nonce %d", deployer.Hex(), nonce)
	}

	_, addr, _, err := n.evm.Create(deployer, initCode, callGas, new(uint256.Int))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to install factory: %w", err)
	}
	if len(n.statedb.GetCode(addr)) == 0 {
		return common.Address{}, fmt.Errorf("failed to install factory: no code at %s", addr.Hex())
	}
	n.statedb.Finalise(true)

	n.factory = addr
	n.log.Debug("factory installed", "address", addr, "deployer", deployer)
	return addr, nil
}

// FactoryAddress returns the installed factory, zero if none
func (n *Network) FactoryAddress() common.Address {
	return n.factory
}

// Fund credits amount to addr
func (n *Network) Fund(addr common.Address, amount *uint256.Int) {
	n.statedb.AddBalance(addr, amount, tracing.BalanceIncreaseGenesisBalance)
	n.statedb.Finalise(true)
}

func (n *Network) ChainID() uint64 {
	return n.chainID
}

func (n *Network) Block() domain.BlockInfo {
	return n.block
}

func (n *Network) Nonce(addr common.Address) uint64 {
	return n.statedb.GetNonce(addr)
}

func (n *Network) Code(addr common.Address) []byte {
	return n.statedb.GetCode(addr)
}

func (n *Network) Balance(addr common.Address) *uint256.Int {
	return new(uint256.Int).Set(n.statedb.GetBalance(addr))
}

// NonceAt implements usecase.NonceSource
func (n *Network) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return n.statedb.GetNonce(addr), nil
}

func (n *Network) Transfer(from, to common.Address, amount *uint256.Int) error {
	if !core.CanTransfer(n.statedb, from, amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), n.statedb.GetBalance(from).Dec(), amount.Dec())
	}
	core.Transfer(n.statedb, from, to, amount)
	return nil
}

func (n *Network) Create(caller common.Address, initCode []byte, value *uint256.Int) (common.Address, []byte, error) {
	ret, addr, _, err := n.evm.Create(caller, initCode, callGas, orZero(value))
	if err != nil {
		n.log.Debug("create failed", "caller", caller, "error", err)
		return addr, revertData(ret, err), err
	}
	return addr, nil, nil
}

func (n *Network) Create2(caller common.Address, initCode []byte, salt common.Hash, value *uint256.Int) (common.Address, []byte, error) {
	ret, addr, _, err := n.evm.Create2(caller, initCode, callGas, orZero(value), new(uint256.Int).SetBytes32(salt[:]))
	if err != nil {
		n.log.Debug("create2 failed", "caller", caller, "salt", salt, "error", err)
		return addr, revertData(ret, err), err
	}
	return addr, nil, nil
}

func (n *Network) Call(caller, to common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	ret, _, err := n.evm.Call(caller, to, input, callGas, orZero(value))
	if err != nil {
		n.log.Debug("call failed", "caller", caller, "to", to, "error", err)
		return revertData(ret, err), err
	}
	return ret, nil
}

// Begin resets transaction-scoped state (transient storage, access list)
// and sets caller as the transaction origin
func (n *Network) Begin(caller common.Address) {
	n.evm.SetTxContext(vm.TxContext{Origin: caller, GasPrice: new(big.Int)})
	factory := n.factory
	n.statedb.Prepare(n.rules, caller, n.block.Coinbase, &factory, vm.ActivePrecompiles(n.rules), nil)
}

func (n *Network) Snapshot() int {
	return n.statedb.Snapshot()
}

func (n *Network) RevertToSnapshot(id int) {
	n.statedb.RevertToSnapshot(id)
}

// Commit finalises the request's changes; earlier snapshots become invalid
func (n *Network) Commit() {
	n.statedb.Finalise(true)
}

// revertData keeps the returned bytes only for an explicit revert
func revertData(ret []byte, err error) []byte {
	if errors.Is(err, vm.ErrExecutionReverted) {
		return common.CopyBytes(ret)
	}
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

var _ usecase.SimulatedNetwork = (*Network)(nil)
