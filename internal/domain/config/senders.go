package config

// SenderType identifies how a sender signs transactions
type SenderType string

const (
	SenderTypePrivateKey SenderType = "private_key"
	SenderTypeLedger     SenderType = "ledger"
	SenderTypeTrezor     SenderType = "trezor"
)

// SenderConfig represents a [senders.<name>] section
type SenderConfig struct {
	Type           SenderType `toml:"type"`
	Address        string     `toml:"address,omitempty"`
	PrivateKey     string     `toml:"private_key,omitempty"` //nolint:gosec // holds env var reference, not a literal secret
	DerivationPath string     `toml:"derivation_path,omitempty"`
}
