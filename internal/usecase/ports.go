package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

// ChainClient is the narrow view of the chain the orchestrator works through.
// Deploy and Transact block until the transaction is included in a block.
type ChainClient interface {
	// Deploy creates a contract from the artifact's creation code and constructor args
	Deploy(ctx context.Context, signer *models.Signer, artifact *models.Artifact, args []any) (common.Address, *models.Transaction, error)
	// Transact invokes a state-changing method on the handle's contract
	Transact(ctx context.Context, signer *models.Signer, handle *models.ContractHandle, method string, args []any) (*models.Transaction, error)
	// Call performs a read-only method call against the latest block
	Call(ctx context.Context, handle *models.ContractHandle, method string, args []any) ([]any, error)
	// HasCode reports whether contract code exists at address
	HasCode(ctx context.Context, address common.Address) (bool, error)
	// ProxySlots reads the EIP-1967 implementation and admin slots of a proxy
	ProxySlots(ctx context.Context, proxy common.Address) (implementation common.Address, admin common.Address, err error)
	// ChainID returns the chain ID of the connected network
	ChainID(ctx context.Context) (uint64, error)
}

// SignerResolver loads the local signing identity
type SignerResolver interface {
	ResolveSigner(ctx context.Context) (*models.Signer, error)
}

// ArtifactRepository provides compiled contract artifacts by contract name
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
	ListArtifacts(ctx context.Context) []string
}

// ArtifactSelector picks one artifact when several share a contract name
type ArtifactSelector interface {
	SelectArtifact(ctx context.Context, name string, candidates []*models.Artifact) (*models.Artifact, error)
}

// AddressBook persists deployment records keyed by network and contract label
type AddressBook interface {
	Lookup(ctx context.Context, network, key string) (*models.DeploymentRecord, error)
	Record(ctx context.Context, record *models.DeploymentRecord) error
	List(ctx context.Context, network string) ([]*models.DeploymentRecord, error)
	GetPath() string
}

// PipelineLoader reads pipeline definitions
type PipelineLoader interface {
	Load(ctx context.Context, path string) (*domain.PipelineConfig, error)
}

// BroadcastConfirmer asks the operator before the first transaction is broadcast
type BroadcastConfirmer interface {
	ConfirmBroadcast(ctx context.Context, summary BroadcastSummary) (bool, error)
}

// BroadcastSummary describes what is about to be broadcast
type BroadcastSummary struct {
	Network string
	ChainID uint64
	Sender  common.Address
	Actions []string
}

// LocalConfigStore manages local configuration persistence
type LocalConfigStore interface {
	Exists() bool
	Load(ctx context.Context) (*domain.LocalConfig, error)
	Save(ctx context.Context, config *domain.LocalConfig) error
	GetPath() string
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
