package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network // nil if not specified
	Sender  string   // Name of the sender in esdeploy.toml

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Check attached addresses for contract code before trusting them
	CheckCode bool

	// Resolved configurations
	ProjectConfig *ProjectConfig
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// SenderConfig returns the configured sender, if any
func (c *RuntimeConfig) SenderConfig() (SenderConfig, bool) {
	if c.ProjectConfig == nil || c.ProjectConfig.Senders == nil {
		return SenderConfig{}, false
	}
	sender, ok := c.ProjectConfig.Senders[c.Sender]
	return sender, ok
}

// NetworkName returns the selected network name or an empty string
func (c *RuntimeConfig) NetworkName() string {
	if c.Network == nil {
		return ""
	}
	return c.Network.Name
}
