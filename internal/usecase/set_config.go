package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/xfactory/internal/config"
	domainconfig "github.com/trebuchet-org/xfactory/internal/domain/config"
)

// SetConfigParams contains parameters for setting configuration
type SetConfigParams struct {
	Key   string
	Value string
}

// SetConfigResult contains the result of setting configuration
type SetConfigResult struct {
	UpdatedConfig *domainconfig.LocalConfig
	ConfigPath    string
	Key           domainconfig.ConfigKey
	Value         string
}

// SetConfig is a use case for setting configuration values
type SetConfig struct {
	runtime *domainconfig.RuntimeConfig
	store   LocalConfigStore
}

// NewSetConfig creates a new SetConfig use case
func NewSetConfig(cfg *domainconfig.RuntimeConfig, store LocalConfigStore) *SetConfig {
	return &SetConfig{
		runtime: cfg,
		store:   store,
	}
}

// Run executes the set config use case
func (uc *SetConfig) Run(ctx context.Context, params SetConfigParams) (*SetConfigResult, error) {
	key, err := domainconfig.NormalizeConfigKey(params.Key)
	if err != nil {
		return nil, err
	}
	if params.Value == "" {
		return nil, fmt.Errorf("value for %s is empty, use remove to clear it", key)
	}

	// A default network must exist in xfactory.toml
	if key == domainconfig.ConfigKeyNetwork {
		if _, err := config.ResolveNetwork(uc.runtime.Networks, params.Value); err != nil {
			return nil, err
		}
	}

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := local.Set(key, params.Value); err != nil {
		return nil, err
	}

	if err := uc.store.Save(ctx, local); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	return &SetConfigResult{
		UpdatedConfig: local,
		ConfigPath:    uc.store.GetPath(),
		Key:           key,
		Value:         params.Value,
	}, nil
}
