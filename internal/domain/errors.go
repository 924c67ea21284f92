package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrMissingSigner is returned when no signing identity is configured
	ErrMissingSigner = errors.New("no signer configured")

	// ErrUnresolvedHandle is returned when a contract handle has no address yet
	ErrUnresolvedHandle = errors.New("contract handle is not resolved to an address")

	// ErrNoCode is returned when there is no contract code at a target address
	ErrNoCode = errors.New("no contract code at address")

	// ErrReverted is returned when a transaction was included but reverted
	ErrReverted = errors.New("transaction reverted")

	// ErrMissingBytecode is returned when an artifact carries no creation bytecode
	ErrMissingBytecode = errors.New("artifact has no bytecode")

	// ErrNoNetwork is returned when an operation needs a network and none is selected
	ErrNoNetwork = errors.New("no network selected")

	// Category sentinels, matched by errors.Is on the typed errors below
	ErrConfiguration = errors.New("configuration error")
	ErrDeployment    = errors.New("deployment error")
	ErrChain         = errors.New("chain error")
)

// ConfigurationError reports bad or missing local input: address format, missing signer,
// malformed config files.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// DeploymentError reports a failure to resolve a contract artifact or its bytecode.
type DeploymentError struct {
	Contract string
	Err      error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment error: %s: %v", e.Contract, e.Err)
}

func (e *DeploymentError) Unwrap() error { return e.Err }

func (e *DeploymentError) Is(target error) bool { return target == ErrDeployment }

// ChainError reports a network failure, a rejected submission or an on-chain revert.
type ChainError struct {
	Op     string
	TxHash string
	Err    error
}

func (e *ChainError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("chain error: %s (tx %s): %v", e.Op, e.TxHash, e.Err)
	}
	return fmt.Sprintf("chain error: %s: %v", e.Op, e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }

func (e *ChainError) Is(target error) bool { return target == ErrChain }

// NewConfigurationError wraps err as a ConfigurationError unless it is already a domain error.
func NewConfigurationError(op string, err error) error {
	if IsClassified(err) {
		return err
	}
	return &ConfigurationError{Op: op, Err: err}
}

// NewChainError wraps err as a ChainError unless it is already a domain error.
func NewChainError(op string, err error) error {
	if IsClassified(err) {
		return err
	}
	return &ChainError{Op: op, Err: err}
}

// IsClassified reports whether err already carries one of the three error categories.
func IsClassified(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrDeployment) || errors.Is(err, ErrChain)
}

// ArtifactNotFoundErr is returned when no artifact matches a contract name
type ArtifactNotFoundErr struct {
	Name        string
	Suggestions []string
}

func (e ArtifactNotFoundErr) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("no artifact found for contract %s", e.Name)
	}
	return fmt.Sprintf("no artifact found for contract %s, did you mean: %s?", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e ArtifactNotFoundErr) Unwrap() error { return ErrNotFound }

// AmbiguousArtifactErr is returned when several artifacts share a contract name
type AmbiguousArtifactErr struct {
	Name  string
	Paths []string
}

func (e AmbiguousArtifactErr) Error() string {
	paths := make([]string, len(e.Paths))
	copy(paths, e.Paths)
	sort.Strings(paths)

	var lines []string
	for _, p := range paths {
		lines = append(lines, "  - "+p)
	}

	return fmt.Sprintf("multiple artifacts found for contract %s:\n%s", e.Name, strings.Join(lines, "\n"))
}
