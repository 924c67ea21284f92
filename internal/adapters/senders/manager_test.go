package senders

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
)

const (
	anvilKey0     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	anvilAddress0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	anvilKey1     = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	anvilAddress1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func newTestResolver(sender string, senders map[string]config.SenderConfig) *Resolver {
	return NewResolver(&config.RuntimeConfig{
		Sender:        sender,
		ProjectConfig: &config.ProjectConfig{Senders: senders},
	})
}

func TestResolveSigner(t *testing.T) {
	ctx := context.Background()

	t.Run("named private key sender", func(t *testing.T) {
		r := newTestResolver("ops", map[string]config.SenderConfig{
			"deployer": {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey0},
			"ops":      {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey1},
		})

		signer, err := r.ResolveSigner(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ops", signer.Name)
		assert.Equal(t, common.HexToAddress(anvilAddress1), signer.Address)
		assert.NotNil(t, signer.Key)
	})

	t.Run("single sender used by default", func(t *testing.T) {
		r := newTestResolver(domain.DefaultSender, map[string]config.SenderConfig{
			"anvil": {Type: config.SenderTypePrivateKey, PrivateKey: anvilKey0},
		})

		signer, err := r.ResolveSigner(ctx)
		require.NoError(t, err)
		assert.Equal(t, "anvil", signer.Name)
		assert.Equal(t, common.HexToAddress(anvilAddress0), signer.Address)
	})

	t.Run("case insensitive name", func(t *testing.T) {
		r := newTestResolver("OPS", map[string]config.SenderConfig{
			"deployer": {PrivateKey: anvilKey0},
			"ops":      {PrivateKey: anvilKey1},
		})

		signer, err := r.ResolveSigner(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ops", signer.Name)
	})

	t.Run("matching address", func(t *testing.T) {
		r := newTestResolver("deployer", map[string]config.SenderConfig{
			"deployer": {PrivateKey: anvilKey0, Address: anvilAddress0},
		})

		_, err := r.ResolveSigner(ctx)
		assert.NoError(t, err)
	})
}

func TestResolveSigner_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		sender     string
		senders    map[string]config.SenderConfig
		wantErr    string
		wantSigner bool
	}{
		{
			name:       "no senders",
			sender:     "deployer",
			wantErr:    "no [senders] declared",
			wantSigner: true,
		},
		{
			name:   "unknown sender",
			sender: "ghost",
			senders: map[string]config.SenderConfig{
				"deployer": {PrivateKey: anvilKey0},
				"ops":      {PrivateKey: anvilKey1},
			},
			wantErr:    "sender 'ghost' not found (available: deployer, ops)",
			wantSigner: true,
		},
		{
			name:       "empty key",
			sender:     "deployer",
			senders:    map[string]config.SenderConfig{"deployer": {Type: config.SenderTypePrivateKey}},
			wantErr:    "has no private key",
			wantSigner: true,
		},
		{
			name:    "malformed key",
			sender:  "deployer",
			senders: map[string]config.SenderConfig{"deployer": {PrivateKey: "0x1234"}},
			wantErr: "failed to parse private key",
		},
		{
			name:    "ledger",
			sender:  "deployer",
			senders: map[string]config.SenderConfig{"deployer": {Type: config.SenderTypeLedger}},
			wantErr: "only private_key senders can sign",
		},
		{
			name:    "unknown type",
			sender:  "deployer",
			senders: map[string]config.SenderConfig{"deployer": {Type: "safe"}},
			wantErr: "unknown type 'safe'",
		},
		{
			name:    "address mismatch",
			sender:  "deployer",
			senders: map[string]config.SenderConfig{"deployer": {PrivateKey: anvilKey0, Address: anvilAddress1}},
			wantErr: "but address is set to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestResolver(tt.sender, tt.senders).ResolveSigner(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantSigner {
				assert.ErrorIs(t, err, domain.ErrMissingSigner)
			}
		})
	}
}
