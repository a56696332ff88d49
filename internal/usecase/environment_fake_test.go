package usecase

import (
	"bytes"
	"errors"
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

// fakeEnv is an in-memory ExecutionEnvironment with simplified execution:
//
//   - init code starting with 0xfd reverts with the remaining bytes
//   - init code starting with 0xc0 deploys the remaining bytes as runtime
//   - any other init code is deployed verbatim as runtime
//   - calling runtime that starts with 0xfd reverts with the remaining bytes
//   - calling the relay runtime creates the calldata with the call value
//   - calling runtime 0xff removes the callee's code
//   - calling anything else accepts the call
type fakeEnv struct {
	chainID   uint64
	block     domain.BlockInfo
	state     fakeState
	snapshots []fakeState
	commits   int
	begins    []common.Address
}

type fakeState struct {
	nonces   map[common.Address]uint64
	code     map[common.Address][]byte
	balances map[common.Address]*uint256.Int
}

var (
	errFakeRevert    = errors.New("execution reverted")
	errFakeCollision = errors.New("contract address collision")
	errFakeBalance   = errors.New("insufficient balance for transfer")

	fakeRelayRuntime = common.FromHex("0x363d3d37363d34f0")
	fakeFactory      = common.HexToAddress("0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed")
)

func newFakeEnv(chainID uint64) *fakeEnv {
	env := &fakeEnv{
		chainID: chainID,
		block: domain.BlockInfo{
			Number:    1000,
			Timestamp: 1_700_000_000,
		},
		state: fakeState{
			nonces:   map[common.Address]uint64{},
			code:     map[common.Address][]byte{},
			balances: map[common.Address]*uint256.Int{},
		},
	}
	env.state.nonces[fakeFactory] = 1
	env.state.code[fakeFactory] = []byte{0x00}
	return env
}

func (s fakeState) clone() fakeState {
	balances := make(map[common.Address]*uint256.Int, len(s.balances))
	for addr, bal := range s.balances {
		balances[addr] = new(uint256.Int).Set(bal)
	}
	return fakeState{
		nonces:   maps.Clone(s.nonces),
		code:     maps.Clone(s.code),
		balances: balances,
	}
}

func (e *fakeEnv) fund(addr common.Address, amount uint64) {
	e.state.balances[addr] = new(uint256.Int).Add(e.Balance(addr), uint256.NewInt(amount))
}

func (e *fakeEnv) ChainID() uint64                  { return e.chainID }
func (e *fakeEnv) Block() domain.BlockInfo          { return e.block }
func (e *fakeEnv) Nonce(addr common.Address) uint64 { return e.state.nonces[addr] }
func (e *fakeEnv) Code(addr common.Address) []byte  { return e.state.code[addr] }
func (e *fakeEnv) Commit()                          { e.commits++ }

func (e *fakeEnv) Begin(caller common.Address) {
	e.begins = append(e.begins, caller)
}

func (e *fakeEnv) Snapshot() int {
	e.snapshots = append(e.snapshots, e.state.clone())
	return len(e.snapshots) - 1
}

func (e *fakeEnv) Balance(addr common.Address) *uint256.Int {
	if bal, ok := e.state.balances[addr]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

func (e *fakeEnv) RevertToSnapshot(id int) {
	e.state = e.snapshots[id]
	e.snapshots = e.snapshots[:id]
}

func (e *fakeEnv) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if e.Balance(from).Lt(amount) {
		return fmt.Errorf("%w: %s", errFakeBalance, from.Hex())
	}
	e.state.balances[from] = new(uint256.Int).Sub(e.Balance(from), amount)
	e.state.balances[to] = new(uint256.Int).Add(e.Balance(to), amount)
	return nil
}

func (e *fakeEnv) Create(caller common.Address, initCode []byte, value *uint256.Int) (common.Address, []byte, error) {
	addr := domain.DeriveNonceBased(caller, e.state.nonces[caller])
	e.state.nonces[caller]++
	return e.deploy(caller, addr, initCode, value)
}

func (e *fakeEnv) Create2(caller common.Address, initCode []byte, salt common.Hash, value *uint256.Int) (common.Address, []byte, error) {
	addr := domain.DeriveSaltBased(caller, salt, domain.CodeHash(initCode))
	e.state.nonces[caller]++
	return e.deploy(caller, addr, initCode, value)
}

func (e *fakeEnv) deploy(caller, addr common.Address, initCode []byte, value *uint256.Int) (common.Address, []byte, error) {
	if len(e.state.code[addr]) > 0 || e.state.nonces[addr] > 0 {
		return common.Address{}, nil, errFakeCollision
	}
	saved := e.state.clone()
	if err := e.Transfer(caller, addr, value); err != nil {
		e.state = saved
		return common.Address{}, nil, err
	}

	runtime := initCode
	switch {
	case len(initCode) > 0 && initCode[0] == 0xfd:
		e.state = saved
		return common.Address{}, common.CopyBytes(initCode[1:]), errFakeRevert
	case len(initCode) > 0 && initCode[0] == 0xc0:
		runtime = initCode[1:]
	case bytes.Equal(initCode, domain.RelayInitCode):
		runtime = fakeRelayRuntime
	}

	e.state.nonces[addr] = 1
	if len(runtime) > 0 {
		e.state.code[addr] = common.CopyBytes(runtime)
	}
	return addr, nil, nil
}

func (e *fakeEnv) Call(caller, to common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	saved := e.state.clone()
	if err := e.Transfer(caller, to, value); err != nil {
		e.state = saved
		return nil, err
	}

	code := e.state.code[to]
	switch {
	case len(code) > 0 && code[0] == 0xfd:
		e.state = saved
		return common.CopyBytes(code[1:]), errFakeRevert
	case bytes.Equal(code, []byte{0xff}):
		delete(e.state.code, to)
	case bytes.Equal(code, fakeRelayRuntime):
		// a failed inner creation does not fail the call
		_, _, _ = e.Create(to, input, value)
	}
	return nil, nil
}

var _ ExecutionEnvironment = (*fakeEnv)(nil)
