package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

func newRunPipeline(env *testEnv, loader usecase.PipelineLoader) *usecase.RunPipeline {
	return usecase.NewRunPipeline(env.cfg, env.orch, loader, env.sink, nil)
}

func stepNames(result *usecase.RunPipelineResult) []string {
	var names []string
	for _, step := range result.Plan.Steps {
		names = append(names, step.Name)
	}
	return names
}

func TestRunPipeline_DryRun(t *testing.T) {
	env := newTestEnv()

	result, err := newRunPipeline(env, nil).Run(context.Background(), usecase.RunPipelineParams{
		Builtin: usecase.PipelineStandard,
		DryRun:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Vault", "OrderBook", "Wire"}, stepNames(result))
	assert.False(t, result.Executed)
	assert.Empty(t, result.Steps)
	assert.Zero(t, env.chain.callCount())
	assert.Empty(t, env.confirmer.summaries)
}

func TestRunPipeline_Standard(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := newRunPipeline(env, nil).Run(ctx, usecase.RunPipelineParams{})
	require.NoError(t, err)
	require.True(t, result.Executed)
	require.Len(t, result.Steps, 3)

	vault := result.Steps[0]
	orderBook := result.Steps[1]
	wire := result.Steps[2]

	assert.Equal(t, "Vault", vault.Step.Name)
	require.NotNil(t, vault.Deployment)
	assert.NotEqual(t, common.Address{}, vault.Address)
	assert.NotEqual(t, vault.Address, orderBook.Address)

	// The order book was initialized with the vault address
	initData := env.chain.proxies[orderBook.Address][2].([]byte)
	unpacked, err := mustABI(orderBookABI).Methods["initialize"].Inputs.Unpack(initData[4:])
	require.NoError(t, err)
	assert.Equal(t, vault.Address, unpacked[1])
	assert.Equal(t, config.DefaultEIP712Name, unpacked[2])
	assert.Equal(t, config.DefaultEIP712Version, unpacked[3])

	require.NotNil(t, wire.Transaction)
	assert.Equal(t, vault.Address, wire.Transaction.Target)
	assert.Equal(t, orderBook.Address, env.chain.orderBooks[vault.Address])

	// One confirmation listing every step
	require.Len(t, env.confirmer.summaries, 1)
	assert.Len(t, env.confirmer.summaries[0].Actions, 3)

	var stages []string
	for _, event := range env.sink.events {
		if event.Stage == "step" {
			stages = append(stages, event.Message)
		}
	}
	assert.Len(t, stages, 3)
	assert.Contains(t, stages[0], "[1/3] Vault")
}

func TestRunPipeline_NFT(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := newRunPipeline(env, nil).Run(ctx, usecase.RunPipelineParams{Builtin: "NFT"})
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)

	nft := result.Steps[0].Address
	owner := env.chain.owners[nft]["10"]
	assert.Equal(t, env.signers.signer.Address, owner)

	token, ok := env.orch.Handle(config.DefaultNFTContract)
	require.True(t, ok)
	got, err := env.orch.OwnerOf(ctx, token, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, env.signers.signer.Address, got)
}

func TestRunPipeline_FromFile(t *testing.T) {
	env := newTestEnv()
	loader := &fakeLoader{pipeline: usecase.NFTPipeline(nil)}

	result, err := newRunPipeline(env, loader).Run(context.Background(), usecase.RunPipelineParams{
		File:    "pipelines/nft.yaml",
		Builtin: usecase.PipelineStandard,
		DryRun:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pipelines/nft.yaml"}, loader.paths)
	assert.Equal(t, []string{"NFT", "Mint"}, stepNames(result))
}

func TestRunPipeline_LocalFailuresBeforeBroadcast(t *testing.T) {
	tests := []struct {
		name     string
		pipeline *domain.PipelineConfig
		setup    func(env *testEnv)
		loadErr  error
		category error
		contains string
	}{
		{
			name: "undeclared dependency",
			pipeline: &domain.PipelineConfig{Name: "broken", Steps: map[string]*domain.StepConfig{
				"Vault": {Action: domain.ActionDeployProxy, Contract: config.DefaultVaultContract},
				"OrderBook": {
					Action:   domain.ActionDeployProxy,
					Contract: config.DefaultOrderBookContract,
					Init:     []string{"200", "${Vault.address}", "EasySwapOrderBook", "1"},
				},
			}},
			category: domain.ErrConfiguration,
			contains: "does not declare it in deps",
		},
		{
			name: "missing artifact",
			pipeline: &domain.PipelineConfig{Name: "missing", Steps: map[string]*domain.StepConfig{
				"X": {Action: domain.ActionDeploy, Contract: "Missing"},
			}},
			category: domain.ErrDeployment,
			contains: "step X",
		},
		{
			name: "call arity",
			pipeline: &domain.PipelineConfig{Name: "arity", Steps: map[string]*domain.StepConfig{
				"Poke": {
					Action:   domain.ActionCall,
					Contract: config.DefaultVaultContract,
					Target:   "0x00000000000000000000000000000000000000aa",
					Method:   usecase.MethodSetOrderBook,
				},
			}},
			category: domain.ErrConfiguration,
			contains: "expects 1 arguments, got 0",
		},
		{
			name:     "initializer arity",
			category: domain.ErrConfiguration,
			pipeline: &domain.PipelineConfig{Name: "init", Steps: map[string]*domain.StepConfig{
				"OrderBook": {Action: domain.ActionDeployProxy, Contract: config.DefaultOrderBookContract, Init: []string{"200"}},
			}},
			contains: "expects 4 arguments, got 1",
		},
		{
			name: "proxy constructor",
			setup: func(env *testEnv) {
				env.artifacts[config.DefaultProxyContract].ABI = []byte(`[{"type":"constructor","inputs":[{"name":"_logic","type":"address"}],"stateMutability":"payable"}]`)
			},
			pipeline: &domain.PipelineConfig{Name: "proxy", Steps: map[string]*domain.StepConfig{
				"Vault": {Action: domain.ActionDeployProxy, Contract: config.DefaultVaultContract},
			}},
			category: domain.ErrDeployment,
			contains: "unsupported proxy constructor with 1 inputs",
		},
		{
			name: "missing proxy artifact",
			setup: func(env *testEnv) {
				delete(env.artifacts, config.DefaultProxyContract)
			},
			pipeline: &domain.PipelineConfig{Name: "proxy", Steps: map[string]*domain.StepConfig{
				"Vault": {Action: domain.ActionDeployProxy, Contract: config.DefaultVaultContract},
			}},
			category: domain.ErrDeployment,
			contains: config.DefaultProxyContract,
		},
		{
			name: "missing proxy admin artifact",
			setup: func(env *testEnv) {
				env.artifacts[config.DefaultProxyContract].ABI = []byte(legacyProxyABI)
				delete(env.artifacts, config.DefaultProxyAdminContract)
			},
			pipeline: &domain.PipelineConfig{Name: "proxy", Steps: map[string]*domain.StepConfig{
				"Vault": {Action: domain.ActionDeployProxy, Contract: config.DefaultVaultContract},
			}},
			category: domain.ErrDeployment,
			contains: config.DefaultProxyAdminContract,
		},
		{
			name:     "loader error",
			loadErr:  errors.New("open pipelines/x.yaml: no such file or directory"),
			category: domain.ErrConfiguration,
			contains: "no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			if tt.setup != nil {
				tt.setup(env)
			}
			loader := &fakeLoader{pipeline: tt.pipeline, err: tt.loadErr}

			result, err := newRunPipeline(env, loader).Run(context.Background(), usecase.RunPipelineParams{File: "pipelines/x.yaml"})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.category), "unexpected category: %v", err)
			assert.Contains(t, err.Error(), tt.contains)

			assert.Zero(t, env.chain.callCount())
			assert.Empty(t, env.confirmer.summaries)
		})
	}
}

func TestRunPipeline_ConfirmNamesDefaultContracts(t *testing.T) {
	env := newTestEnv()
	loader := &fakeLoader{pipeline: &domain.PipelineConfig{Name: "defaults", Steps: map[string]*domain.StepConfig{
		"Vault": {Action: domain.ActionDeployProxy, Contract: config.DefaultVaultContract},
		"OrderBook": {
			Action:   domain.ActionDeployProxy,
			Contract: config.DefaultOrderBookContract,
			Init:     []string{"200", "${Vault.address}", "EasySwapOrderBook", "1"},
			Deps:     []string{"Vault"},
		},
		"Wire": {
			Action: domain.ActionWire,
			Target: "${Vault.address}",
			Args:   []string{"${OrderBook.address}"},
			Deps:   []string{"Vault", "OrderBook"},
		},
	}}}

	_, err := newRunPipeline(env, loader).Run(context.Background(), usecase.RunPipelineParams{File: "pipelines/defaults.yaml"})
	require.NoError(t, err)

	require.Len(t, env.confirmer.summaries, 1)
	actions := env.confirmer.summaries[0].Actions
	require.Len(t, actions, 3)
	assert.Contains(t, actions, "Wire: register ${OrderBook.address} with "+config.DefaultVaultContract+" ${Vault.address}")
}

func TestRunPipeline_UnknownSigner(t *testing.T) {
	env := newTestEnv()
	env.signers.err = errors.New("sender 'ops' is not declared")

	_, err := newRunPipeline(env, nil).Run(context.Background(), usecase.RunPipelineParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Zero(t, env.chain.callCount())
}

func TestRunPipeline_StopsAtFirstFailure(t *testing.T) {
	env := newTestEnv()
	env.chain.failMethod = usecase.MethodSetOrderBook

	result, err := newRunPipeline(env, nil).Run(context.Background(), usecase.RunPipelineParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrChain))
	assert.Contains(t, err.Error(), "step Wire")

	require.NotNil(t, result)
	assert.False(t, result.Executed)
	require.Len(t, result.Steps, 3)
	assert.NotEqual(t, common.Address{}, result.Steps[0].Address)
	assert.NotEqual(t, common.Address{}, result.Steps[1].Address)
	assert.Nil(t, result.Steps[2].Transaction)
	assert.Empty(t, env.chain.orderBooks)
}

func TestRunPipeline_UnknownBuiltin(t *testing.T) {
	env := newTestEnv()

	_, err := newRunPipeline(env, nil).Run(context.Background(), usecase.RunPipelineParams{Builtin: "mainnet"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Contains(t, err.Error(), "unknown pipeline")
}

func TestBuiltinPipelinesUseProjectContracts(t *testing.T) {
	project := &config.ProjectConfig{
		Contracts: config.ContractsConfig{Vault: "VaultV2"},
		OrderBook: config.OrderBookConfig{ProtocolShare: 250, EIP712Name: "Book"},
	}

	pipeline := usecase.StandardPipeline(project)
	require.NoError(t, pipeline.Validate())
	assert.Equal(t, "VaultV2", pipeline.Steps["Vault"].Contract)
	assert.Equal(t, config.DefaultOrderBookContract, pipeline.Steps["OrderBook"].Contract)
	assert.Equal(t, []string{"250", "${Vault.address}", "Book", "1"}, pipeline.Steps["OrderBook"].Init)

	// The caller's config is left untouched
	assert.Empty(t, project.Contracts.OrderBook)

	nft := usecase.NFTPipeline(nil)
	require.NoError(t, nft.Validate())
	assert.Equal(t, []string{domain.SignerRef, "10"}, nft.Steps["Mint"].Args)
}
