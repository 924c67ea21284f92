package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepNames(plan *ExecutionPlan) []string {
	names := make([]string, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		names = append(names, s.Name)
	}
	return names
}

func TestTopologicalSort(t *testing.T) {
	cfg := &PipelineConfig{
		Name: "standard",
		Steps: map[string]*StepConfig{
			"Wire": {
				Action: ActionWire,
				Target: "${Vault.address}",
				Args:   []string{"${OrderBook.address}"},
				Deps:   []string{"Vault", "OrderBook"},
			},
			"OrderBook": {
				Action:   ActionDeployProxy,
				Contract: "EasySwapOrderBook",
				Init:     []string{"200", "${Vault.address}", "EasySwapOrderBook", "1"},
				Deps:     []string{"Vault"},
			},
			"Vault": {Action: ActionDeployProxy, Contract: "EasySwapVault"},
			"NFT":   {Action: ActionDeploy, Contract: "Troll"},
		},
	}

	require.NoError(t, cfg.Validate())
	plan, err := cfg.TopologicalSort()
	require.NoError(t, err)

	assert.Equal(t, "standard", plan.Name)
	assert.Equal(t, []string{"NFT", "Vault", "OrderBook", "Wire"}, stepNames(plan))
}

func TestTopologicalSort_Cycle(t *testing.T) {
	cfg := &PipelineConfig{
		Steps: map[string]*StepConfig{
			"A": {Action: ActionDeploy, Contract: "A", Deps: []string{"B"}},
			"B": {Action: ActionDeploy, Contract: "B", Deps: []string{"A"}},
		},
	}

	_, err := cfg.TopologicalSort()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
	assert.Contains(t, err.Error(), "[A B]")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		steps   map[string]*StepConfig
		wantErr string
	}{
		{
			name:    "missing dependency",
			steps:   map[string]*StepConfig{"OrderBook": {Action: ActionDeployProxy, Contract: "EasySwapOrderBook", Deps: []string{"Vault"}}},
			wantErr: "depends on non-existent step 'Vault'",
		},
		{
			name:    "self dependency",
			steps:   map[string]*StepConfig{"Vault": {Action: ActionDeploy, Contract: "EasySwapVault", Deps: []string{"Vault"}}},
			wantErr: "depends on itself",
		},
		{
			name:    "missing action",
			steps:   map[string]*StepConfig{"Vault": {Contract: "EasySwapVault"}},
			wantErr: "missing action",
		},
		{
			name:    "deploy without contract",
			steps:   map[string]*StepConfig{"Vault": {Action: ActionDeploy}},
			wantErr: "deploy requires a contract",
		},
		{
			name:    "mint with one arg",
			steps:   map[string]*StepConfig{"Mint": {Action: ActionMint, Target: "0x01", Args: []string{"${signer}"}}},
			wantErr: "mint requires",
		},
		{
			name:    "call without method",
			steps:   map[string]*StepConfig{"Call": {Action: ActionCall, Contract: "EasySwapVault", Target: "0x01"}},
			wantErr: "call requires",
		},
		{
			name:    "nil step",
			steps:   map[string]*StepConfig{"Vault": nil},
			wantErr: "is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&PipelineConfig{Steps: tt.steps}).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStepReferences(t *testing.T) {
	refs := StepReferences("${Vault.address}", "x-${OrderBook.address}-${Vault.address}", "${signer}", "plain")
	assert.Equal(t, []string{"Vault", "OrderBook"}, refs)
}

func TestExpandReferences(t *testing.T) {
	outputs := map[string]string{"Vault": "0x1111111111111111111111111111111111111111"}
	resolve := func(step string) (string, bool) {
		v, ok := outputs[step]
		return v, ok
	}
	signer := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	got, err := ExpandReferences("${Vault.address}", signer, resolve)
	require.NoError(t, err)
	assert.Equal(t, outputs["Vault"], got)

	got, err = ExpandReferences(SignerRef, signer, resolve)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	got, err = ExpandReferences("10", signer, resolve)
	require.NoError(t, err)
	assert.Equal(t, "10", got)

	_, err = ExpandReferences("${OrderBook.address}", signer, resolve)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OrderBook")
}
