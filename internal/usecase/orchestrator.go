package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

// Orchestrator sequences deploy, attach, call and mint operations for one run.
// It holds the resolved signer and the contract handles accumulated so far;
// operations run one at a time and block until their transaction confirms.
type Orchestrator struct {
	cfg       *config.RuntimeConfig
	chain     ChainClient
	signers   SignerResolver
	artifacts ArtifactRepository
	book      AddressBook
	confirmer BroadcastConfirmer
	progress  ProgressSink
	log       *slog.Logger

	mu        sync.Mutex
	signer    *models.Signer
	handles   map[string]*models.ContractHandle
	records   []*models.DeploymentRecord
	confirmed bool

	proxyAdmin common.Address
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	cfg *config.RuntimeConfig,
	chain ChainClient,
	signers SignerResolver,
	artifacts ArtifactRepository,
	book AddressBook,
	confirmer BroadcastConfirmer,
	progress ProgressSink,
	log *slog.Logger,
) *Orchestrator {
	if progress == nil {
		progress = NopProgress{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		cfg:       cfg,
		chain:     chain,
		signers:   signers,
		artifacts: artifacts,
		book:      book,
		confirmer: confirmer,
		progress:  progress,
		log:       log,
		handles:   make(map[string]*models.ContractHandle),
	}
}

// ResolveSigner returns the active signer, loading it on first use
func (o *Orchestrator) ResolveSigner(ctx context.Context) (*models.Signer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.signer != nil {
		return o.signer, nil
	}
	if o.signers == nil {
		return nil, &domain.ConfigurationError{Op: "resolve signer", Err: domain.ErrMissingSigner}
	}

	signer, err := o.signers.ResolveSigner(ctx)
	if err != nil {
		return nil, domain.NewConfigurationError("resolve signer", err)
	}
	if signer == nil || signer.Key == nil {
		return nil, &domain.ConfigurationError{Op: "resolve signer", Err: domain.ErrMissingSigner}
	}

	o.signer = signer
	o.log.Debug("resolved signer", "name", signer.Name, "address", signer.Address.Hex())
	return signer, nil
}

// Handle returns a handle accumulated in this run by name
func (o *Orchestrator) Handle(name string) (*models.ContractHandle, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.handles[name]
	return h, ok
}

// Records returns the deployment records produced in this run, in order
func (o *Orchestrator) Records() []*models.DeploymentRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*models.DeploymentRecord, len(o.records))
	copy(out, o.records)
	return out
}

// Confirm asks the operator once per run before the first broadcast
func (o *Orchestrator) Confirm(ctx context.Context, actions ...string) error {
	if o.confirmer == nil || o.confirmed {
		return nil
	}

	signer, err := o.ResolveSigner(ctx)
	if err != nil {
		return err
	}

	summary := BroadcastSummary{
		Network: o.cfg.NetworkName(),
		Sender:  signer.Address,
		Actions: actions,
	}
	if o.cfg.Network != nil {
		summary.ChainID = o.cfg.Network.ChainID
	}

	ok, err := o.confirmer.ConfirmBroadcast(ctx, summary)
	if err != nil {
		return domain.NewConfigurationError("confirm broadcast", err)
	}
	if !ok {
		return &domain.ConfigurationError{Op: "confirm broadcast", Err: fmt.Errorf("aborted by operator")}
	}
	o.confirmed = true
	return nil
}

// ResolveAddress turns an address or an address book label into an address.
// Never touches the chain.
func (o *Orchestrator) ResolveAddress(ctx context.Context, ref string) (common.Address, error) {
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}

	if o.book != nil && ref != "" && !looksLikeHex(ref) {
		record, err := o.book.Lookup(ctx, o.cfg.NetworkName(), ref)
		if err == nil {
			return record.Address, nil
		}
		return common.Address{}, &domain.ConfigurationError{
			Op:  "resolve address",
			Err: fmt.Errorf("%w: %q is neither an address nor a known label on %s: %v", domain.ErrInvalidAddress, ref, o.cfg.NetworkName(), err),
		}
	}

	return common.Address{}, &domain.ConfigurationError{
		Op:  "resolve address",
		Err: fmt.Errorf("%w: %q", domain.ErrInvalidAddress, ref),
	}
}

func looksLikeHex(ref string) bool {
	return len(ref) >= 2 && ref[0] == '0' && (ref[1] == 'x' || ref[1] == 'X')
}

func (o *Orchestrator) addHandle(key string, handle *models.ContractHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handles[key] = handle
}

func (o *Orchestrator) addRecord(record *models.DeploymentRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
}

// HandleNames returns the names of the handles accumulated so far
func (o *Orchestrator) HandleNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.handles))
	for name := range o.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o *Orchestrator) chainID(ctx context.Context) uint64 {
	if o.cfg.Network != nil && o.cfg.Network.ChainID != 0 {
		return o.cfg.Network.ChainID
	}
	id, err := o.chain.ChainID(ctx)
	if err != nil {
		o.log.Warn("failed to read chain ID", "error", err)
		return 0
	}
	return id
}
