package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCategories(t *testing.T) {
	cfgErr := &ConfigurationError{Op: "resolve signer", Err: ErrMissingSigner}
	depErr := &DeploymentError{Contract: "EasySwapVault", Err: ErrMissingBytecode}
	chainErr := &ChainError{Op: "call mint", TxHash: "0xabc", Err: ErrReverted}

	assert.ErrorIs(t, cfgErr, ErrConfiguration)
	assert.ErrorIs(t, cfgErr, ErrMissingSigner)
	assert.NotErrorIs(t, cfgErr, ErrChain)

	assert.ErrorIs(t, depErr, ErrDeployment)
	assert.ErrorIs(t, depErr, ErrMissingBytecode)

	assert.ErrorIs(t, chainErr, ErrChain)
	assert.ErrorIs(t, chainErr, ErrReverted)
	assert.Contains(t, chainErr.Error(), "tx 0xabc")

	wrapped := fmt.Errorf("step Mint: %w", chainErr)
	assert.ErrorIs(t, wrapped, ErrChain)
	assert.True(t, IsClassified(wrapped))
}

func TestNewErrorsKeepClassification(t *testing.T) {
	depErr := &DeploymentError{Contract: "Troll", Err: ErrNotFound}

	assert.Same(t, depErr, NewChainError("deploy", depErr))
	assert.Same(t, depErr, NewConfigurationError("deploy", depErr))

	plain := errors.New("connection refused")
	assert.ErrorIs(t, NewChainError("dial", plain), ErrChain)
	assert.ErrorIs(t, NewConfigurationError("load", plain), ErrConfiguration)
}

func TestArtifactNotFoundErr(t *testing.T) {
	err := ArtifactNotFoundErr{Name: "EasySwapVaul", Suggestions: []string{"EasySwapVault"}}

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "no artifact found for contract EasySwapVaul, did you mean: EasySwapVault?", err.Error())
}

func TestAmbiguousArtifactErr(t *testing.T) {
	err := AmbiguousArtifactErr{Name: "Troll", Paths: []string{"out/b/Troll.json", "out/a/Troll.json"}}

	assert.Equal(t, "multiple artifacts found for contract Troll:\n  - out/a/Troll.json\n  - out/b/Troll.json", err.Error())
}
