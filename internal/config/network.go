package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
)

// NetworkResolver resolves network names declared in esdeploy.toml
type NetworkResolver struct {
	networks map[string]config.NetworkConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(project *config.ProjectConfig) *NetworkResolver {
	networks := map[string]config.NetworkConfig{}
	if project != nil && project.Networks != nil {
		networks = project.Networks
	}
	return &NetworkResolver{networks: networks}
}

// Resolve resolves a network name to its configuration. The chain ID stays 0
// when not configured; the chain client reads it on connect.
func (r *NetworkResolver) Resolve(networkName string) (*config.Network, error) {
	network, ok := r.networks[networkName]
	if !ok {
		return nil, &domain.ConfigurationError{
			Op:  "resolve network",
			Err: fmt.Errorf("network '%s' not found in %s (available: %s)", networkName, ProjectFile, strings.Join(r.Names(), ", ")),
		}
	}
	if strings.TrimSpace(network.RPCURL) == "" {
		return nil, &domain.ConfigurationError{
			Op:  "resolve network",
			Err: fmt.Errorf("network '%s' has no rpc_url (is the environment variable set?)", networkName),
		}
	}

	explorer := network.Explorer
	if explorer == "" {
		explorer = explorerURL(network.ChainID)
	}

	return &config.Network{
		Name:        networkName,
		RPCURL:      network.RPCURL,
		ChainID:     network.ChainID,
		ExplorerURL: explorer,
	}, nil
}

// Names returns the declared network names in order
func (r *NetworkResolver) Names() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// explorerURL returns a default block explorer for well-known chains
func explorerURL(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 17000:
		return "https://holesky.etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 8453:
		return "https://basescan.org"
	case 84532:
		return "https://sepolia.basescan.org"
	case 42161:
		return "https://arbiscan.io"
	case 137:
		return "https://polygonscan.com"
	default:
		return ""
	}
}
