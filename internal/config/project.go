package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
)

// ProjectFile is the name of the project configuration file
const ProjectFile = "esdeploy.toml"

// LoadProjectConfig loads .env files, then parses esdeploy.toml and expands
// ${VAR} references in network and sender fields.
func LoadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	loadEnvFiles(projectRoot)

	path := filepath.Join(projectRoot, ProjectFile)
	cfg := &config.ProjectConfig{}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, &domain.ConfigurationError{Op: "load " + ProjectFile, Err: err}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	expandEnv(cfg)
	return cfg, nil
}

// loadEnvFiles loads .env then .env.local; variables already set win
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

func expandEnv(cfg *config.ProjectConfig) {
	for name, network := range cfg.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		network.Explorer = os.ExpandEnv(network.Explorer)
		cfg.Networks[name] = network
	}

	for name, sender := range cfg.Senders {
		sender.PrivateKey = os.ExpandEnv(sender.PrivateKey)
		sender.Address = os.ExpandEnv(sender.Address)
		sender.DerivationPath = os.ExpandEnv(sender.DerivationPath)
		cfg.Senders[name] = sender
	}

	for i, dir := range cfg.ArtifactsDirs {
		cfg.ArtifactsDirs[i] = os.ExpandEnv(dir)
	}
}
