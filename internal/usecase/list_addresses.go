package usecase

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

// ListAddressesParams contains parameters for listing recorded deployments
type ListAddressesParams struct {
	ContractName string
	Type         models.DeploymentType
}

// ListAddressesResult contains recorded deployments for the current network
type ListAddressesResult struct {
	Network     string
	BookPath    string
	Deployments []*models.DeploymentRecord
}

// ListAddresses is the use case for listing address book entries
type ListAddresses struct {
	config *config.RuntimeConfig
	book   AddressBook
	sink   ProgressSink
}

// NewListAddresses creates a new ListAddresses use case
func NewListAddresses(cfg *config.RuntimeConfig, book AddressBook, sink ProgressSink) *ListAddresses {
	return &ListAddresses{
		config: cfg,
		book:   book,
		sink:   sink,
	}
}

// Run executes the list addresses use case
func (uc *ListAddresses) Run(ctx context.Context, params ListAddressesParams) (*ListAddressesResult, error) {
	if uc.config.Network == nil {
		return nil, &domain.ConfigurationError{Op: "list addresses", Err: domain.ErrNoNetwork}
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading address book",
		Spinner: true,
	})

	records, err := uc.book.List(ctx, uc.config.Network.Name)
	if err != nil {
		return nil, err
	}

	records = lo.Filter(records, func(r *models.DeploymentRecord, _ int) bool {
		if params.ContractName != "" && r.ContractName != params.ContractName {
			return false
		}
		return params.Type == "" || r.Type == params.Type
	})

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ContractName != records[j].ContractName {
			return records[i].ContractName < records[j].ContractName
		}
		return records[i].Key() < records[j].Key()
	})

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(records),
		Total:   len(records),
		Message: "Address book loaded",
	})

	return &ListAddressesResult{
		Network:     uc.config.Network.Name,
		BookPath:    uc.book.GetPath(),
		Deployments: records,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
