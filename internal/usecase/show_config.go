package usecase

import (
	"context"

	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
)

// ShowConfigResult contains the result of showing configuration
type ShowConfigResult struct {
	Config     *domain.LocalConfig
	ConfigPath string
	Exists     bool
	Networks   []string // Networks declared in esdeploy.toml
	Senders    []string // Senders declared in esdeploy.toml
}

// ShowConfig is a use case for showing configuration
type ShowConfig struct {
	config *config.RuntimeConfig
	store  LocalConfigStore
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(cfg *config.RuntimeConfig, store LocalConfigStore) *ShowConfig {
	return &ShowConfig{
		config: cfg,
		store:  store,
	}
}

// Run executes the show config use case
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	exists := uc.store.Exists()

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &ShowConfigResult{
		Config:     local,
		ConfigPath: uc.store.GetPath(),
		Exists:     exists,
	}
	if uc.config != nil && uc.config.ProjectConfig != nil {
		result.Networks = sortedKeys(uc.config.ProjectConfig.Networks)
		result.Senders = sortedKeys(uc.config.ProjectConfig.Senders)
	}
	return result, nil
}
