package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/esdeploy/internal/domain"
)

// BytecodeObject represents bytecode information in a compilation artifact.
// Foundry writes {"object": "0x..."}, Hardhat writes a plain hex string.
type BytecodeObject struct {
	Object         string         `json:"object"`
	LinkReferences map[string]any `json:"linkReferences,omitempty"`
}

// UnmarshalJSON accepts both the Foundry object form and the Hardhat string form
func (b *BytecodeObject) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Object)
	}

	type plain BytecodeObject
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BytecodeObject(p)
	return nil
}

// Artifact represents a compiled contract: ABI plus creation bytecode
type Artifact struct {
	ContractName     string          `json:"contractName,omitempty"`
	SourceName       string          `json:"sourceName,omitempty"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         BytecodeObject  `json:"bytecode"`
	DeployedBytecode BytecodeObject  `json:"deployedBytecode"`
	LinkReferences   map[string]any  `json:"linkReferences,omitempty"`

	// Path of the artifact file, filled by the loader
	Path string `json:"-"`
}

// ParsedABI parses the artifact ABI
func (a *Artifact) ParsedABI() (*abi.ABI, error) {
	if len(a.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no ABI", a.Path)
	}
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI of %s: %w", a.Path, err)
	}
	return &parsed, nil
}

// CreationCode decodes the creation bytecode. Unlinked library placeholders are rejected.
func (a *Artifact) CreationCode() ([]byte, error) {
	object := strings.TrimSpace(a.Bytecode.Object)
	if object == "" || object == "0x" {
		return nil, fmt.Errorf("%s: %w", a.Path, domain.ErrMissingBytecode)
	}
	if strings.Contains(object, "__") {
		return nil, fmt.Errorf("%s: bytecode has unlinked library references", a.Path)
	}
	if !strings.HasPrefix(object, "0x") {
		object = "0x" + object
	}
	code, err := hexutil.Decode(object)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid bytecode: %w", a.Path, err)
	}
	return code, nil
}

// ContractHandle is a reference to a deployed contract: address plus ABI
type ContractHandle struct {
	Name    string
	Address common.Address
	ABI     *abi.ABI
}

// Resolved reports whether the handle points at a real address
func (h *ContractHandle) Resolved() bool {
	return h != nil && h.Address != (common.Address{}) && h.ABI != nil
}

func (h *ContractHandle) String() string {
	if h == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%s", h.Name, h.Address.Hex())
}
