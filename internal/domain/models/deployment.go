package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeploymentType represents the type of deployment
type DeploymentType string

const (
	SingletonDeployment DeploymentType = "SINGLETON"
	ProxyDeployment     DeploymentType = "PROXY"
)

// DeploymentRecord is the immutable output of a deploy operation
type DeploymentRecord struct {
	// Core identification
	Network      string         `json:"network"`
	ChainID      uint64         `json:"chainId"`
	ContractName string         `json:"contractName"`    // e.g., "EasySwapVault"
	Label        string         `json:"label,omitempty"` // Address book key, defaults to ContractName
	Address      common.Address `json:"address"`         // Proxy address for upgradeable deployments
	Type         DeploymentType `json:"type"`

	// Proxy information (zero for singleton deployments)
	Implementation common.Address `json:"implementation,omitempty"`
	Admin          common.Address `json:"admin,omitempty"`

	// Transaction that created Address
	TransactionHash common.Hash    `json:"transactionHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	Deployer        common.Address `json:"deployer"`

	CreatedAt time.Time `json:"createdAt"`
}

// Key returns the address book key of the record
func (d *DeploymentRecord) Key() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ContractName
}

// IsProxy reports whether the record describes an upgradeable deployment
func (d *DeploymentRecord) IsProxy() bool {
	return d.Type == ProxyDeployment
}

// GetDisplayName returns a human-friendly name for the deployment
func (d *DeploymentRecord) GetDisplayName() string {
	if d.Label != "" && d.Label != d.ContractName {
		return fmt.Sprintf("%s:%s", d.ContractName, d.Label)
	}
	return d.ContractName
}
