package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
)

// DataDirName is the per-project state directory
const DataDirName = ".esdeploy"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, err
		}
	}

	project, err := LoadProjectConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		Sender:         v.GetString("sender"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		CheckCode:      v.GetBool("check_code") || project.CheckCode,
		ProjectConfig:  project,
	}

	networkName := v.GetString("network")
	resolver := NewNetworkResolver(project)
	if networkName == "" {
		// A single declared network is selected implicitly
		if names := resolver.Names(); len(names) == 1 {
			networkName = names[0]
		}
	}
	if networkName != "" {
		network, err := resolver.Resolve(networkName)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find esdeploy.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &domain.ConfigurationError{
				Op:  "find project root",
				Err: fmt.Errorf("not in an esdeploy project (%s not found)", ProjectFile),
			}
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance. Precedence is flags,
// then ESDEPLOY_* environment, then .esdeploy/config.local.json, then defaults.
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	v.SetEnvPrefix("ESDEPLOY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("sender", domain.DefaultSender)
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("check_code", false)
	v.SetDefault("project_root", projectRoot)

	// Missing config.local.json is fine
	_ = v.ReadInConfig()

	return v
}
