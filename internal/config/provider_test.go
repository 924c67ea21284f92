package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	domainconfig "github.com/trebuchet-org/esdeploy/internal/domain/config"
)

const testProject = `
artifacts_dirs = ["out"]

[networks.local]
rpc_url = "http://127.0.0.1:8545"
chain_id = 31337

[networks.sepolia]
rpc_url = "${ESDEPLOY_TEST_SEPOLIA_RPC}"
chain_id = 11155111

[senders.deployer]
type = "private_key"
private_key = "${ESDEPLOY_TEST_DEPLOYER_KEY}"

[contracts]
nft = "TestERC721"

[order_book]
protocol_share = 300
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFile), []byte(content), 0644))
	return root
}

func TestLoadProjectConfig(t *testing.T) {
	t.Setenv("ESDEPLOY_TEST_SEPOLIA_RPC", "https://sepolia.example.org")
	t.Setenv("ESDEPLOY_TEST_DEPLOYER_KEY", "0xabc")
	root := writeProject(t, testProject)

	cfg, err := LoadProjectConfig(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"out"}, cfg.ArtifactsDirs)
	assert.Equal(t, "https://sepolia.example.org", cfg.Networks["sepolia"].RPCURL)
	assert.Equal(t, uint64(31337), cfg.Networks["local"].ChainID)
	assert.Equal(t, "0xabc", cfg.Senders["deployer"].PrivateKey)
	assert.Equal(t, domainconfig.SenderTypePrivateKey, cfg.Senders["deployer"].Type)

	// Defaults fill what the file leaves out
	assert.Equal(t, "TestERC721", cfg.Contracts.NFT)
	assert.Equal(t, domainconfig.DefaultVaultContract, cfg.Contracts.Vault)
	assert.Equal(t, domainconfig.DefaultProxyContract, cfg.Contracts.Proxy)
	assert.Equal(t, uint64(300), cfg.OrderBook.ProtocolShare)
	assert.Equal(t, domainconfig.DefaultEIP712Name, cfg.OrderBook.EIP712Name)
}

func TestLoadProjectConfig_DotEnv(t *testing.T) {
	root := writeProject(t, testProject)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("ESDEPLOY_TEST_DOTENV_KEY=0xdef\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFile), []byte(`
[senders.deployer]
private_key = "${ESDEPLOY_TEST_DOTENV_KEY}"
`), 0644))
	t.Cleanup(func() { os.Unsetenv("ESDEPLOY_TEST_DOTENV_KEY") })

	cfg, err := LoadProjectConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "0xdef", cfg.Senders["deployer"].PrivateKey)
}

func TestLoadProjectConfig_Invalid(t *testing.T) {
	root := writeProject(t, "[networks.local\nrpc_url = 1")

	_, err := LoadProjectConfig(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestProvider(t *testing.T) {
	t.Setenv("ESDEPLOY_TEST_SEPOLIA_RPC", "https://sepolia.example.org")
	root := writeProject(t, testProject)

	t.Run("flags and defaults", func(t *testing.T) {
		v := SetupViper(root)
		v.Set("network", "sepolia")
		v.Set("debug", "true")

		cfg, err := Provider(v)
		require.NoError(t, err)

		assert.Equal(t, root, cfg.ProjectRoot)
		assert.Equal(t, filepath.Join(root, DataDirName), cfg.DataDir)
		assert.Equal(t, domain.DefaultSender, cfg.Sender)
		assert.Equal(t, 5*time.Minute, cfg.Timeout)
		assert.True(t, cfg.Debug)
		assert.False(t, cfg.CheckCode)
		require.NotNil(t, cfg.Network)
		assert.Equal(t, "sepolia", cfg.Network.Name)
		assert.Equal(t, uint64(11155111), cfg.Network.ChainID)
		assert.Equal(t, "https://sepolia.etherscan.io", cfg.Network.ExplorerURL)
	})

	t.Run("local config supplies network", func(t *testing.T) {
		dataDir := filepath.Join(root, DataDirName)
		require.NoError(t, os.MkdirAll(dataDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.local.json"), []byte(`{"network":"local","sender":"deployer"}`), 0644))
		t.Cleanup(func() { os.RemoveAll(dataDir) })

		cfg, err := Provider(SetupViper(root))
		require.NoError(t, err)
		require.NotNil(t, cfg.Network)
		assert.Equal(t, "local", cfg.Network.Name)
		assert.Equal(t, "http://127.0.0.1:8545", cfg.Network.RPCURL)
	})

	t.Run("no network selected", func(t *testing.T) {
		cfg, err := Provider(SetupViper(root))
		require.NoError(t, err)
		assert.Nil(t, cfg.Network)
	})

	t.Run("unknown network", func(t *testing.T) {
		v := SetupViper(root)
		v.Set("network", "mainnet")

		_, err := Provider(v)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Contains(t, err.Error(), "available: local, sepolia")
	})
}

func TestProvider_SingleNetworkImplicit(t *testing.T) {
	root := writeProject(t, "[networks.local]\nrpc_url = \"http://127.0.0.1:8545\"\n")

	cfg, err := Provider(SetupViper(root))
	require.NoError(t, err)
	require.NotNil(t, cfg.Network)
	assert.Equal(t, "local", cfg.Network.Name)
}

func TestNetworkResolver_MissingRPC(t *testing.T) {
	resolver := NewNetworkResolver(&domainconfig.ProjectConfig{
		Networks: map[string]domainconfig.NetworkConfig{"sepolia": {RPCURL: "  "}},
	})

	_, err := resolver.Resolve("sepolia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no rpc_url")
}

func TestFindProjectRoot(t *testing.T) {
	root := writeProject(t, "")
	nested := filepath.Join(root, "contracts", "src")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	found, err := FindProjectRoot()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
