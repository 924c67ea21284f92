package config

// ProjectConfig represents the esdeploy.toml configuration file
type ProjectConfig struct {
	ArtifactsDirs []string                 `toml:"artifacts_dirs"`
	CheckCode     bool                     `toml:"check_code"`
	Networks      map[string]NetworkConfig `toml:"networks"`
	Senders       map[string]SenderConfig  `toml:"senders"`
	Contracts     ContractsConfig          `toml:"contracts"`
	OrderBook     OrderBookConfig          `toml:"order_book"`
}

// NetworkConfig represents a [networks.<name>] section
type NetworkConfig struct {
	RPCURL   string `toml:"rpc_url"`
	ChainID  uint64 `toml:"chain_id,omitempty"`
	Explorer string `toml:"explorer,omitempty"`
}

// ContractsConfig maps the roles of the protocol to artifact names
type ContractsConfig struct {
	Vault       string `toml:"vault"`
	OrderBook   string `toml:"order_book"`
	Proxy       string `toml:"proxy"`
	ProxyAdmin  string `toml:"proxy_admin"`
	NFT         string `toml:"nft"`
	Initializer string `toml:"initializer"`
}

// OrderBookConfig holds the order book initializer parameters
type OrderBookConfig struct {
	ProtocolShare uint64 `toml:"protocol_share"`
	EIP712Name    string `toml:"eip712_name"`
	EIP712Version string `toml:"eip712_version"`
}

// Defaults used when esdeploy.toml leaves a field empty
const (
	DefaultVaultContract      = "EasySwapVault"
	DefaultOrderBookContract  = "EasySwapOrderBook"
	DefaultProxyContract      = "TransparentUpgradeableProxy"
	DefaultProxyAdminContract = "ProxyAdmin"
	DefaultNFTContract        = "Troll"
	DefaultInitializer        = "initialize"
	DefaultProtocolShare      = 200
	DefaultEIP712Name         = "EasySwapOrderBook"
	DefaultEIP712Version      = "1"
)

// DefaultArtifactsDirs are searched when artifacts_dirs is not set (Hardhat, then Foundry)
var DefaultArtifactsDirs = []string{"artifacts", "out"}

// ApplyDefaults fills unset fields with their defaults
func (c *ProjectConfig) ApplyDefaults() {
	if len(c.ArtifactsDirs) == 0 {
		c.ArtifactsDirs = append([]string(nil), DefaultArtifactsDirs...)
	}
	if c.Networks == nil {
		c.Networks = make(map[string]NetworkConfig)
	}
	if c.Senders == nil {
		c.Senders = make(map[string]SenderConfig)
	}
	if c.Contracts.Vault == "" {
		c.Contracts.Vault = DefaultVaultContract
	}
	if c.Contracts.OrderBook == "" {
		c.Contracts.OrderBook = DefaultOrderBookContract
	}
	if c.Contracts.Proxy == "" {
		c.Contracts.Proxy = DefaultProxyContract
	}
	if c.Contracts.ProxyAdmin == "" {
		c.Contracts.ProxyAdmin = DefaultProxyAdminContract
	}
	if c.Contracts.NFT == "" {
		c.Contracts.NFT = DefaultNFTContract
	}
	if c.Contracts.Initializer == "" {
		c.Contracts.Initializer = DefaultInitializer
	}
	if c.OrderBook.ProtocolShare == 0 {
		c.OrderBook.ProtocolShare = DefaultProtocolShare
	}
	if c.OrderBook.EIP712Name == "" {
		c.OrderBook.EIP712Name = DefaultEIP712Name
	}
	if c.OrderBook.EIP712Version == "" {
		c.OrderBook.EIP712Version = DefaultEIP712Version
	}
}
