package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// AddressBookFile is the name of the address book inside the data dir
const AddressBookFile = "addresses.json"

// addressBookData is the on-disk layout: network name, then record key
type addressBookData map[string]map[string]*models.DeploymentRecord

// AddressBookAdapter persists deployment records as JSON
type AddressBookAdapter struct {
	path string
	mu   sync.Mutex
}

// NewAddressBookAdapter creates an address book in the project data dir
func NewAddressBookAdapter(cfg *config.RuntimeConfig) *AddressBookAdapter {
	return &AddressBookAdapter{
		path: filepath.Join(cfg.DataDir, AddressBookFile),
	}
}

// Lookup returns the record stored under key on network. Keys match case-insensitively.
func (b *AddressBookAdapter) Lookup(ctx context.Context, network, key string) (*models.DeploymentRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load()
	if err != nil {
		return nil, err
	}

	records := data[network]
	if record, ok := records[key]; ok {
		return record, nil
	}
	for k, record := range records {
		if strings.EqualFold(k, key) {
			return record, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", domain.ErrNotFound, key, network)
}

// Record stores a deployment, replacing any earlier record whose key matches
// case-insensitively. The latest spelling of the key is kept.
func (b *AddressBookAdapter) Record(ctx context.Context, record *models.DeploymentRecord) error {
	if record.Network == "" {
		return &domain.ConfigurationError{Op: "record deployment", Err: domain.ErrNoNetwork}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load()
	if err != nil {
		return err
	}
	if data[record.Network] == nil {
		data[record.Network] = make(map[string]*models.DeploymentRecord)
	}
	key := record.Key()
	for k := range data[record.Network] {
		if k != key && strings.EqualFold(k, key) {
			delete(data[record.Network], k)
		}
	}
	data[record.Network][key] = record

	return b.save(data)
}

// List returns every record on network sorted by key
func (b *AddressBookAdapter) List(ctx context.Context, network string) ([]*models.DeploymentRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.load()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(data[network]))
	for k := range data[network] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]*models.DeploymentRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, data[network][k])
	}
	return records, nil
}

// GetPath returns the path of the address book file
func (b *AddressBookAdapter) GetPath() string {
	return b.path
}

func (b *AddressBookAdapter) load() (addressBookData, error) {
	raw, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return make(addressBookData), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read address book: %w", err)
	}

	data := make(addressBookData)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &domain.ConfigurationError{Op: "load address book", Err: fmt.Errorf("failed to parse %s: %w", b.path, err)}
	}
	return data, nil
}

func (b *AddressBookAdapter) save(data addressBookData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal address book: %w", err)
	}
	return writeFileAtomic(b.path, append(raw, '\n'))
}

var _ usecase.AddressBook = (*AddressBookAdapter)(nil)
