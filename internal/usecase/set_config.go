package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
)

// SetConfigParams contains parameters for setting configuration
type SetConfigParams struct {
	Key   string
	Value string
}

// SetConfigResult contains the result of setting configuration
type SetConfigResult struct {
	UpdatedConfig *domain.LocalConfig
	ConfigPath    string
	Key           domain.ConfigKey
	Value         string
}

// SetConfig is a use case for setting configuration values
type SetConfig struct {
	config *config.RuntimeConfig
	store  LocalConfigStore
}

// NewSetConfig creates a new SetConfig use case
func NewSetConfig(cfg *config.RuntimeConfig, store LocalConfigStore) *SetConfig {
	return &SetConfig{
		config: cfg,
		store:  store,
	}
}

// Run executes the set config use case
func (uc *SetConfig) Run(ctx context.Context, params SetConfigParams) (*SetConfigResult, error) {
	key := strings.ToLower(params.Key)
	if !domain.IsValidConfigKey(key) {
		return nil, unknownConfigKeyError(params.Key)
	}
	normalizedKey := domain.NormalizeConfigKey(key)

	// Only names declared in esdeploy.toml can be selected
	if uc.config != nil && uc.config.ProjectConfig != nil {
		switch normalizedKey {
		case domain.ConfigKeyNetwork:
			if _, ok := uc.config.ProjectConfig.Networks[params.Value]; !ok {
				return nil, &domain.ConfigurationError{
					Op:  "set network",
					Err: fmt.Errorf("network '%s' is not declared in esdeploy.toml (available: %s)", params.Value, strings.Join(sortedKeys(uc.config.ProjectConfig.Networks), ", ")),
				}
			}
		case domain.ConfigKeySender:
			if _, ok := uc.config.ProjectConfig.Senders[params.Value]; !ok {
				return nil, &domain.ConfigurationError{
					Op:  "set sender",
					Err: fmt.Errorf("sender '%s' is not declared in esdeploy.toml (available: %s)", params.Value, strings.Join(sortedKeys(uc.config.ProjectConfig.Senders), ", ")),
				}
			}
		}
	}

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	switch normalizedKey {
	case domain.ConfigKeyNetwork:
		local.Network = params.Value
	case domain.ConfigKeySender:
		local.Sender = params.Value
	}

	if err := uc.store.Save(ctx, local); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	return &SetConfigResult{
		UpdatedConfig: local,
		ConfigPath:    uc.store.GetPath(),
		Key:           normalizedKey,
		Value:         params.Value,
	}, nil
}

func unknownConfigKeyError(key string) error {
	validKeys := []string{}
	for _, k := range domain.ValidConfigKeys() {
		if k == domain.ConfigKeySender {
			validKeys = append(validKeys, string(k)+" (from)")
		} else {
			validKeys = append(validKeys, string(k))
		}
	}
	return &domain.ConfigurationError{
		Op:  "config",
		Err: fmt.Errorf("unknown config key: %s\nAvailable keys: %s", key, strings.Join(validKeys, ", ")),
	}
}
