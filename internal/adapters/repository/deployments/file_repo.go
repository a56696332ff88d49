package deployments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

const DeploymentsFile = "deployments.json"

// FileRepository stores the factory registry in a json file. Entries are
// append-only: a network is registered at most once.
type FileRepository struct {
	dataDir     string
	mu          sync.RWMutex
	deployments []*models.FactoryDeployment
	byChain     map[uint64]*models.FactoryDeployment
	now         func() time.Time
}

// NewFileRepository opens the registry under the configured data directory
func NewFileRepository(cfg *config.RuntimeConfig) (*FileRepository, error) {
	return NewFileRepositoryAt(cfg.DataDir)
}

// NewFileRepositoryAt opens the registry stored in dataDir
func NewFileRepositoryAt(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	r := &FileRepository{
		dataDir: dataDir,
		byChain: make(map[uint64]*models.FactoryDeployment),
		now:     time.Now,
	}

	if err := r.load(); err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	return r, nil
}

func (r *FileRepository) path() string {
	return filepath.Join(r.dataDir, DeploymentsFile)
}

// load reads the registry file, a missing file is an empty registry
func (r *FileRepository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var deployments []*models.FactoryDeployment
	if err := json.Unmarshal(data, &deployments); err != nil {
		return fmt.Errorf("failed to parse %s: %w", DeploymentsFile, err)
	}

	for _, dep := range deployments {
		if _, exists := r.byChain[dep.ChainID]; exists {
			return fmt.Errorf("%s lists chain %d twice", DeploymentsFile, dep.ChainID)
		}
		r.byChain[dep.ChainID] = dep
	}
	r.deployments = deployments
	return nil
}

// save writes the registry atomically
func (r *FileRepository) save() error {
	data, err := json.MarshalIndent(r.deployments, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first
	tmpPath := r.path() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmpPath, r.path())
}

// ListDeployments returns every registered network in registration order
func (r *FileRepository) ListDeployments(ctx context.Context) ([]*models.FactoryDeployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.deployments, func(dep *models.FactoryDeployment, _ int) *models.FactoryDeployment {
		c := *dep
		return &c
	}), nil
}

// GetDeployment returns the entry for chainID
func (r *FileRepository) GetDeployment(ctx context.Context, chainID uint64) (*models.FactoryDeployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dep, ok := r.byChain[chainID]
	if !ok {
		return nil, fmt.Errorf("chain %d: %w", chainID, domain.ErrNotFound)
	}
	c := *dep
	return &c, nil
}

// SaveDeployment appends a new entry
func (r *FileRepository) SaveDeployment(ctx context.Context, deployment *models.FactoryDeployment) error {
	if err := deployment.Validate(); err != nil {
		return err
	}
	if !common.IsHexAddress(deployment.Address) {
		return fmt.Errorf("%q: %w", deployment.Address, domain.ErrInvalidAddress)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byChain[deployment.ChainID]; ok {
		return fmt.Errorf("chain %d is registered as %s: %w", deployment.ChainID, existing.Name, domain.ErrAlreadyExists)
	}

	entry := *deployment
	entry.Address = common.HexToAddress(deployment.Address).Hex()
	if entry.AddedAt.IsZero() {
		entry.AddedAt = r.now().UTC()
	}

	r.deployments = append(r.deployments, &entry)
	r.byChain[entry.ChainID] = &entry

	if err := r.save(); err != nil {
		r.deployments = r.deployments[:len(r.deployments)-1]
		delete(r.byChain, entry.ChainID)
		return fmt.Errorf("failed to save registry: %w", err)
	}
	return nil
}

var _ usecase.DeploymentRepository = (*FileRepository)(nil)
