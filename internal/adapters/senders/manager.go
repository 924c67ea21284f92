package senders

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// Resolver loads the signer selected by the runtime config from esdeploy.toml
type Resolver struct {
	config *config.RuntimeConfig
}

// NewResolver creates a new signer resolver
func NewResolver(cfg *config.RuntimeConfig) *Resolver {
	return &Resolver{config: cfg}
}

// ResolveSigner loads and parses the key of the selected sender. It never
// touches the network.
func (r *Resolver) ResolveSigner(ctx context.Context) (*models.Signer, error) {
	name, sender, err := r.lookup(r.config.Sender)
	if err != nil {
		return nil, err
	}

	switch sender.Type {
	case config.SenderTypePrivateKey, "":
		// handled below
	case config.SenderTypeLedger, config.SenderTypeTrezor:
		return nil, &domain.ConfigurationError{
			Op:  "resolve signer",
			Err: fmt.Errorf("sender '%s' uses a %s wallet, only private_key senders can sign", name, sender.Type),
		}
	default:
		return nil, &domain.ConfigurationError{
			Op:  "resolve signer",
			Err: fmt.Errorf("sender '%s' has unknown type '%s'", name, sender.Type),
		}
	}

	raw := strings.TrimSpace(sender.PrivateKey)
	if raw == "" {
		return nil, &domain.ConfigurationError{
			Op:  "resolve signer",
			Err: fmt.Errorf("%w: sender '%s' has no private key (is the environment variable set?)", domain.ErrMissingSigner, name),
		}
	}

	key, address, err := parsePrivateKey(raw)
	if err != nil {
		return nil, &domain.ConfigurationError{Op: "resolve signer", Err: fmt.Errorf("sender '%s': %w", name, err)}
	}

	if expected := strings.TrimSpace(sender.Address); expected != "" {
		if !common.IsHexAddress(expected) {
			return nil, &domain.ConfigurationError{Op: "resolve signer", Err: fmt.Errorf("%w: sender '%s' address %q", domain.ErrInvalidAddress, name, expected)}
		}
		if common.HexToAddress(expected) != address {
			return nil, &domain.ConfigurationError{
				Op:  "resolve signer",
				Err: fmt.Errorf("sender '%s' private key derives %s, but address is set to %s", name, address.Hex(), expected),
			}
		}
	}

	return &models.Signer{Name: name, Address: address, Key: key}, nil
}

// lookup finds a sender by name, falling back to the only configured sender
// when no name was selected.
func (r *Resolver) lookup(name string) (string, config.SenderConfig, error) {
	var senders map[string]config.SenderConfig
	if r.config.ProjectConfig != nil {
		senders = r.config.ProjectConfig.Senders
	}

	if len(senders) == 0 {
		return "", config.SenderConfig{}, &domain.ConfigurationError{
			Op:  "resolve signer",
			Err: fmt.Errorf("%w: no [senders] declared in esdeploy.toml", domain.ErrMissingSigner),
		}
	}

	if (name == "" || name == domain.DefaultSender) && len(senders) == 1 {
		for only, sender := range senders {
			return only, sender, nil
		}
	}
	if name == "" {
		name = domain.DefaultSender
	}

	if sender, ok := senders[name]; ok {
		return name, sender, nil
	}
	for key, sender := range senders {
		if strings.EqualFold(key, name) {
			return key, sender, nil
		}
	}

	available := make([]string, 0, len(senders))
	for key := range senders {
		available = append(available, key)
	}
	sort.Strings(available)
	return "", config.SenderConfig{}, &domain.ConfigurationError{
		Op:  "resolve signer",
		Err: fmt.Errorf("%w: sender '%s' not found (available: %s)", domain.ErrMissingSigner, name, strings.Join(available, ", ")),
	}
}

func parsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, common.Address, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to parse private key: %w", err)
	}

	return privateKey, crypto.PubkeyToAddress(privateKey.PublicKey), nil
}

var _ usecase.SignerResolver = (*Resolver)(nil)
