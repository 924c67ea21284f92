package domain

// LocalConfig represents the local esdeploy configuration
type LocalConfig struct {
	Network string `json:"network"`
	Sender  string `json:"sender"`
}

// ConfigKey represents a configuration key
type ConfigKey string

const (
	ConfigKeyNetwork ConfigKey = "network"
	ConfigKeySender  ConfigKey = "sender"
)

// DefaultSender is the sender used when none is configured
const DefaultSender = "deployer"

// DefaultLocalConfig returns the default local configuration
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Network: "",
		Sender:  DefaultSender,
	}
}

// ValidConfigKeys returns all valid configuration keys
func ValidConfigKeys() []ConfigKey {
	return []ConfigKey{
		ConfigKeyNetwork,
		ConfigKeySender,
	}
}

// IsValidConfigKey checks if a key is valid
func IsValidConfigKey(key string) bool {
	for _, validKey := range ValidConfigKeys() {
		if string(validKey) == key || (key == "from" && validKey == ConfigKeySender) {
			return true
		}
	}
	return false
}

// NormalizeConfigKey normalizes a config key (e.g., "from" -> "sender")
func NormalizeConfigKey(key string) ConfigKey {
	if key == "from" {
		return ConfigKeySender
	}
	return ConfigKey(key)
}
