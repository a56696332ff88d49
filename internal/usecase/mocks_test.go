package usecase_test

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// MockDeploymentRepository is a mock implementation of DeploymentRepository
type MockDeploymentRepository struct {
	mock.Mock
}

func (m *MockDeploymentRepository) ListDeployments(ctx context.Context) ([]*models.FactoryDeployment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FactoryDeployment), args.Error(1)
}

func (m *MockDeploymentRepository) GetDeployment(ctx context.Context, chainID uint64) (*models.FactoryDeployment, error) {
	args := m.Called(ctx, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FactoryDeployment), args.Error(1)
}

func (m *MockDeploymentRepository) SaveDeployment(ctx context.Context, deployment *models.FactoryDeployment) error {
	args := m.Called(ctx, deployment)
	return args.Error(0)
}

// MockProgressSink records progress events
type MockProgressSink struct {
	events []usecase.ProgressEvent
	infos  []string
	errors []string
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(message string) {
	m.infos = append(m.infos, message)
}

func (m *MockProgressSink) Error(message string) {
	m.errors = append(m.errors, message)
}

// MockBlockchainChecker is a mock implementation of BlockchainChecker
type MockBlockchainChecker struct {
	mock.Mock
}

func (m *MockBlockchainChecker) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	return m.Called(ctx, rpcURL, chainID).Error(0)
}

func (m *MockBlockchainChecker) CheckDeploymentExists(ctx context.Context, address common.Address) (bool, string, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockBlockchainChecker) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockBlockchainChecker) Close() {
	m.Called()
}

func (m *MockBlockchainChecker) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockBlockchainChecker) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

// MockSelector answers prompts with a fixed response
type MockSelector struct {
	mock.Mock
}

func (m *MockSelector) SelectDeployment(ctx context.Context, deployments []*models.FactoryDeployment, prompt string) (*models.FactoryDeployment, error) {
	args := m.Called(ctx, deployments, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FactoryDeployment), args.Error(1)
}

func (m *MockSelector) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

// memoryFiles is an in-memory FileWriter
type memoryFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: make(map[string][]byte)}
}

func (f *memoryFiles) WriteFile(ctx context.Context, path string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = append([]byte(nil), content...)
	return nil
}

func (f *memoryFiles) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return data, nil
}

func (f *memoryFiles) FileExists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok, nil
}

func (f *memoryFiles) EnsureDirectory(ctx context.Context, path string) error {
	return nil
}

// keySigner signs with a raw key, mirroring the local signer adapter
type keySigner struct {
	key *ecdsa.PrivateKey
}

func (s keySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s keySigner) SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, types.HomesteadSigner{}, s.key)
}

type keySignerFactory struct{}

func (keySignerFactory) FromPrivateKey(hexKey string) (usecase.TransactionSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, err
	}
	return keySigner{key: key}, nil
}
