package usecase

import (
	"context"

	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

// ShowConfigResult contains the result of showing configuration
type ShowConfigResult struct {
	Config     *config.LocalConfig
	ConfigPath string
	Exists     bool
	// Factory and Networks are the resolved project settings
	Factory  config.FactoryConfig
	Networks int
	Source   string
}

// ShowConfig is a use case for showing configuration
type ShowConfig struct {
	runtime *config.RuntimeConfig
	store   LocalConfigStore
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(cfg *config.RuntimeConfig, store LocalConfigStore) *ShowConfig {
	return &ShowConfig{
		runtime: cfg,
		store:   store,
	}
}

// Run executes the show config use case
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &ShowConfigResult{
		Config:     local,
		ConfigPath: uc.store.GetPath(),
		Exists:     uc.store.Exists(),
		Factory:    uc.runtime.Factory,
		Networks:   len(uc.runtime.Networks),
		Source:     uc.runtime.ConfigSource,
	}, nil
}
