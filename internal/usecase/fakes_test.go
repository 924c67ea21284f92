package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

const (
	anvilKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	vaultABI     = `[{"type":"function","name":"initialize","inputs":[],"outputs":[],"stateMutability":"nonpayable"},{"type":"function","name":"setOrderBook","inputs":[{"name":"newOrderBook","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},{"type":"function","name":"orderBook","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}]`
	orderBookABI = `[{"type":"function","name":"initialize","inputs":[{"name":"newProtocolShare","type":"uint128"},{"name":"newVault","type":"address"},{"name":"EIP712Name","type":"string"},{"name":"EIP712Version","type":"string"}],"outputs":[],"stateMutability":"nonpayable"}]`
	proxyABI     = `[{"type":"constructor","inputs":[{"name":"_logic","type":"address"},{"name":"initialOwner","type":"address"},{"name":"_data","type":"bytes"}],"stateMutability":"payable"}]`
	trollABI     = `[{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},{"type":"function","name":"ownerOf","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}]`

	// OpenZeppelin 4 proxy, the admin is written straight into the admin slot
	legacyProxyABI = `[{"type":"constructor","inputs":[{"name":"_logic","type":"address"},{"name":"admin_","type":"address"},{"name":"_data","type":"bytes"}],"stateMutability":"payable"}]`
	proxyAdminABI  = `[{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}]`
)

// fakeChain is an in-memory chain that understands the few EasySwap calls the tests make
type fakeChain struct {
	mu sync.Mutex

	calls      int
	nonce      uint64
	code       map[common.Address]string
	proxies    map[common.Address][]any
	admins     map[common.Address]common.Address
	orderBooks map[common.Address]common.Address
	owners     map[common.Address]map[string]common.Address
	deployed   []string
	failMethod string

	accountAdmin bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		code:       make(map[common.Address]string),
		proxies:    make(map[common.Address][]any),
		admins:     make(map[common.Address]common.Address),
		orderBooks: make(map[common.Address]common.Address),
		owners:     make(map[common.Address]map[string]common.Address),
	}
}

func (f *fakeChain) tx(signer *models.Signer, target common.Address, method string, args []any) *models.Transaction {
	f.nonce++
	return &models.Transaction{
		Target:      target,
		Method:      method,
		Args:        args,
		Hash:        common.BigToHash(new(big.Int).SetUint64(0xf000 + f.nonce)),
		Status:      models.TransactionStatusConfirmed,
		BlockNumber: f.nonce,
		Sender:      signer.Address,
		Nonce:       f.nonce - 1,
	}
}

func (f *fakeChain) Deploy(ctx context.Context, signer *models.Signer, artifact *models.Artifact, args []any) (common.Address, *models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	addr := common.BigToAddress(new(big.Int).SetUint64(0x1000 + f.nonce))
	f.code[addr] = artifact.ContractName
	f.deployed = append(f.deployed, artifact.ContractName)
	if artifact.ContractName == config.DefaultProxyContract {
		f.proxies[addr] = args
		if len(args) == 3 {
			f.admins[addr] = f.proxyAdminFor(addr, args[1].(common.Address))
		}
	}
	return addr, f.tx(signer, addr, "", args), nil
}

// proxyAdminFor mimics the transparent proxy constructors. A contract admin is
// used as is; an account becomes the owner of a ProxyAdmin the proxy creates,
// unless the chain is set up to write it straight into the admin slot.
func (f *fakeChain) proxyAdminFor(proxy, admin common.Address) common.Address {
	if _, ok := f.code[admin]; ok || f.accountAdmin {
		return admin
	}
	created := common.BigToAddress(new(big.Int).Add(proxy.Big(), big.NewInt(0xad0000)))
	f.code[created] = config.DefaultProxyAdminContract
	return created
}

func (f *fakeChain) Transact(ctx context.Context, signer *models.Signer, handle *models.ContractHandle, method string, args []any) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if _, ok := f.code[handle.Address]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoCode, handle.Address.Hex())
	}
	if method == f.failMethod {
		return nil, fmt.Errorf("%w: forced failure", domain.ErrReverted)
	}

	switch method {
	case usecase.MethodSetOrderBook:
		f.orderBooks[handle.Address] = args[0].(common.Address)
	case usecase.MethodMint:
		id := args[1].(*big.Int).String()
		if f.owners[handle.Address] == nil {
			f.owners[handle.Address] = make(map[string]common.Address)
		}
		if _, exists := f.owners[handle.Address][id]; exists {
			t := f.tx(signer, handle.Address, method, args)
			t.Status = models.TransactionStatusFailed
			return t, fmt.Errorf("%w: ERC721: token already minted", domain.ErrReverted)
		}
		f.owners[handle.Address][id] = args[0].(common.Address)
	}
	return f.tx(signer, handle.Address, method, args), nil
}

func (f *fakeChain) Call(ctx context.Context, handle *models.ContractHandle, method string, args []any) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	switch method {
	case usecase.MethodOrderBook:
		return []any{f.orderBooks[handle.Address]}, nil
	case usecase.MethodOwnerOf:
		owner, ok := f.owners[handle.Address][args[0].(*big.Int).String()]
		if !ok {
			return nil, fmt.Errorf("ERC721: invalid token ID")
		}
		return []any{owner}, nil
	}
	return nil, fmt.Errorf("unexpected call %s", method)
}

func (f *fakeChain) HasCode(ctx context.Context, address common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, ok := f.code[address]
	return ok, nil
}

func (f *fakeChain) ProxySlots(ctx context.Context, proxy common.Address) (common.Address, common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	args := f.proxies[proxy]
	if len(args) < 2 {
		return common.Address{}, common.Address{}, nil
	}
	return args[0].(common.Address), f.admins[proxy], nil
}

func (f *fakeChain) ChainID(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 31337, nil
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSigners resolves a fixed signer or fails
type fakeSigners struct {
	signer *models.Signer
	err    error
}

func newTestSigner() *models.Signer {
	key, err := crypto.HexToECDSA(anvilKey0)
	if err != nil {
		panic(err)
	}
	return &models.Signer{Name: "deployer", Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}
}

func (s *fakeSigners) ResolveSigner(ctx context.Context) (*models.Signer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.signer, nil
}

// fakeArtifacts serves in-memory artifacts
type fakeArtifacts map[string]*models.Artifact

func newFakeArtifacts() fakeArtifacts {
	mk := func(name, abiJSON string) *models.Artifact {
		return &models.Artifact{
			ContractName: name,
			ABI:          json.RawMessage(abiJSON),
			Bytecode:     models.BytecodeObject{Object: "0x6080"},
			Path:         "out/" + name + ".sol/" + name + ".json",
		}
	}
	return fakeArtifacts{
		config.DefaultVaultContract:      mk(config.DefaultVaultContract, vaultABI),
		config.DefaultOrderBookContract:  mk(config.DefaultOrderBookContract, orderBookABI),
		config.DefaultProxyContract:      mk(config.DefaultProxyContract, proxyABI),
		config.DefaultProxyAdminContract: mk(config.DefaultProxyAdminContract, proxyAdminABI),
		config.DefaultNFTContract:        mk(config.DefaultNFTContract, trollABI),
	}
}

func (a fakeArtifacts) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	artifact, ok := a[name]
	if !ok {
		return nil, domain.ArtifactNotFoundErr{Name: name}
	}
	return artifact, nil
}

func (a fakeArtifacts) ListArtifacts(ctx context.Context) []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	return names
}

// memoryBook is an in-memory address book
type memoryBook struct {
	mu      sync.Mutex
	records map[string]map[string]*models.DeploymentRecord
}

func newMemoryBook() *memoryBook {
	return &memoryBook{records: make(map[string]map[string]*models.DeploymentRecord)}
}

func (b *memoryBook) Lookup(ctx context.Context, network, key string) (*models.DeploymentRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.records[network][key]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
}

func (b *memoryBook) Record(ctx context.Context, record *models.DeploymentRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.records[record.Network] == nil {
		b.records[record.Network] = make(map[string]*models.DeploymentRecord)
	}
	b.records[record.Network][record.Key()] = record
	return nil
}

func (b *memoryBook) List(ctx context.Context, network string) ([]*models.DeploymentRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*models.DeploymentRecord
	for _, r := range b.records[network] {
		out = append(out, r)
	}
	return out, nil
}

func (b *memoryBook) GetPath() string { return "/tmp/.esdeploy/addresses.json" }

// fakeConfirmer records confirmation requests
type fakeConfirmer struct {
	answer    bool
	summaries []usecase.BroadcastSummary
}

func (c *fakeConfirmer) ConfirmBroadcast(ctx context.Context, summary usecase.BroadcastSummary) (bool, error) {
	c.summaries = append(c.summaries, summary)
	return c.answer, nil
}

// recordingSink collects progress events
type recordingSink struct {
	mu     sync.Mutex
	events []usecase.ProgressEvent
	errors []string
}

func (s *recordingSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Info(string) {}

func (s *recordingSink) Error(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, message)
}

// testEnv wires an orchestrator over the fakes
type testEnv struct {
	cfg       *config.RuntimeConfig
	chain     *fakeChain
	signers   *fakeSigners
	artifacts fakeArtifacts
	book      *memoryBook
	confirmer *fakeConfirmer
	sink      *recordingSink
	orch      *usecase.Orchestrator
}

func newTestEnv() *testEnv {
	project := &config.ProjectConfig{}
	project.ApplyDefaults()

	env := &testEnv{
		cfg: &config.RuntimeConfig{
			Network:       &config.Network{Name: "local", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"},
			Sender:        "deployer",
			ProjectConfig: project,
		},
		chain:     newFakeChain(),
		signers:   &fakeSigners{signer: newTestSigner()},
		artifacts: newFakeArtifacts(),
		book:      newMemoryBook(),
		confirmer: &fakeConfirmer{answer: true},
		sink:      &recordingSink{},
	}
	env.orch = usecase.NewOrchestrator(env.cfg, env.chain, env.signers, env.artifacts, env.book, env.confirmer, env.sink, nil)
	return env
}

func mustABI(abiJSON string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
	return &parsed
}

// fakeLoader returns a fixed pipeline
type fakeLoader struct {
	pipeline *domain.PipelineConfig
	err      error
	paths    []string
}

func (l *fakeLoader) Load(ctx context.Context, path string) (*domain.PipelineConfig, error) {
	l.paths = append(l.paths, path)
	if l.err != nil {
		return nil, l.err
	}
	return l.pipeline, nil
}

// memoryStore is an in-memory local config store
type memoryStore struct {
	exists bool
	local  *domain.LocalConfig
	saved  int
}

func (s *memoryStore) Exists() bool { return s.exists }

func (s *memoryStore) Load(ctx context.Context) (*domain.LocalConfig, error) {
	if s.local == nil {
		return domain.DefaultLocalConfig(), nil
	}
	copied := *s.local
	return &copied, nil
}

func (s *memoryStore) Save(ctx context.Context, local *domain.LocalConfig) error {
	copied := *local
	s.local = &copied
	s.exists = true
	s.saved++
	return nil
}

func (s *memoryStore) GetPath() string { return "/tmp/project/.esdeploy/config.local.json" }
