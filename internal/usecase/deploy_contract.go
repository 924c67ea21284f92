package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

// DeployParams contains parameters for deploying a contract
type DeployParams struct {
	Contract        string
	Label           string // Address book key, defaults to Contract
	ConstructorArgs []any
	InitializerArgs []any // Upgradeable deployments only
}

// preparedDeploy is a deployment whose local inputs have all been validated
type preparedDeploy struct {
	artifact *models.Artifact
	abi      *abi.ABI
	args     []any
}

// DeployUpgradeable deploys the implementation, then a proxy pointing at it whose
// constructor runs the initializer, and reads back the EIP-1967 slots.
// Proxies that take an explicit admin get a ProxyAdmin contract deployed once per run.
// Calling it twice creates two independent deployments.
func (o *Orchestrator) DeployUpgradeable(ctx context.Context, params DeployParams) (*models.DeploymentRecord, error) {
	signer, err := o.ResolveSigner(ctx)
	if err != nil {
		return nil, err
	}

	impl, err := o.prepareDeploy(ctx, params.Contract, params.ConstructorArgs)
	if err != nil {
		return nil, err
	}

	initData, err := o.encodeInitializer(params.Contract, impl.abi, params.InitializerArgs)
	if err != nil {
		return nil, err
	}

	proxy, err := o.prepareProxy(ctx, signer)
	if err != nil {
		return nil, err
	}

	if err := o.Confirm(ctx, fmt.Sprintf("deploy %s behind %s", params.Contract, proxy.name)); err != nil {
		return nil, err
	}

	implAddr, implTx, err := o.deploy(ctx, signer, params.Contract, impl)
	if err != nil {
		return nil, err
	}

	owner := signer.Address
	if proxy.layout == proxyLayoutAdmin {
		if owner, err = o.ensureProxyAdmin(ctx, signer, proxy.admin); err != nil {
			return nil, err
		}
	}

	proxyAddr, proxyTx, err := o.deploy(ctx, signer, proxy.name, &preparedDeploy{
		artifact: proxy.artifact,
		abi:      proxy.abi,
		args:     proxy.layout.args(implAddr, owner, initData),
	})
	if err != nil {
		return nil, err
	}

	slotImpl, admin, err := o.chain.ProxySlots(ctx, proxyAddr)
	if err != nil {
		return nil, domain.NewChainError("read proxy slots", err)
	}
	if slotImpl != implAddr {
		o.log.Warn("proxy implementation slot differs from deployed implementation",
			"proxy", proxyAddr.Hex(), "slot", slotImpl.Hex(), "deployed", implAddr.Hex())
	}
	// A transparent proxy never forwards calls from its admin
	if proxy.layout != proxyLayoutPlain && admin == signer.Address {
		return nil, &domain.DeploymentError{
			Contract: params.Contract,
			Err: fmt.Errorf("proxy %s is administered by the deployer %s; calls from the deployer would not reach the implementation",
				proxyAddr.Hex(), admin.Hex()),
		}
	}

	record := &models.DeploymentRecord{
		Network:         o.cfg.NetworkName(),
		ChainID:         o.chainID(ctx),
		ContractName:    params.Contract,
		Label:           params.Label,
		Address:         proxyAddr,
		Type:            models.ProxyDeployment,
		Implementation:  slotImpl,
		Admin:           admin,
		TransactionHash: proxyTx.Hash,
		BlockNumber:     proxyTx.BlockNumber,
		Deployer:        signer.Address,
		CreatedAt:       time.Now().UTC(),
	}

	o.log.Info("deployed upgradeable contract",
		"contract", params.Contract,
		"proxy", proxyAddr.Hex(),
		"implementation", slotImpl.Hex(),
		"admin", admin.Hex(),
		"implementation_tx", implTx.Hash.Hex(),
		"proxy_tx", proxyTx.Hash.Hex(),
	)

	return o.finishDeploy(ctx, record, impl.abi)
}

// Deploy deploys a plain (non-proxy) contract
func (o *Orchestrator) Deploy(ctx context.Context, params DeployParams) (*models.DeploymentRecord, error) {
	signer, err := o.ResolveSigner(ctx)
	if err != nil {
		return nil, err
	}

	prepared, err := o.prepareDeploy(ctx, params.Contract, params.ConstructorArgs)
	if err != nil {
		return nil, err
	}

	if err := o.Confirm(ctx, "deploy "+params.Contract); err != nil {
		return nil, err
	}

	addr, tx, err := o.deploy(ctx, signer, params.Contract, prepared)
	if err != nil {
		return nil, err
	}

	record := &models.DeploymentRecord{
		Network:         o.cfg.NetworkName(),
		ChainID:         o.chainID(ctx),
		ContractName:    params.Contract,
		Label:           params.Label,
		Address:         addr,
		Type:            models.SingletonDeployment,
		TransactionHash: tx.Hash,
		BlockNumber:     tx.BlockNumber,
		Deployer:        signer.Address,
		CreatedAt:       time.Now().UTC(),
	}

	o.log.Info("deployed contract", "contract", params.Contract, "address", addr.Hex(), "tx", tx.Hash.Hex())

	return o.finishDeploy(ctx, record, prepared.abi)
}

func (o *Orchestrator) finishDeploy(ctx context.Context, record *models.DeploymentRecord, contractABI *abi.ABI) (*models.DeploymentRecord, error) {
	o.addRecord(record)
	o.addHandle(record.Key(), &models.ContractHandle{
		Name:    record.ContractName,
		Address: record.Address,
		ABI:     contractABI,
	})

	// The deployment is on-chain already; a failed write only loses the bookkeeping
	if o.book != nil {
		if err := o.book.Record(ctx, record); err != nil {
			o.log.Error("failed to record deployment in address book", "contract", record.ContractName, "error", err)
			o.progress.Error(fmt.Sprintf("failed to record %s in %s: %v", record.Key(), o.book.GetPath(), err))
		}
	}

	return record, nil
}

func (o *Orchestrator) prepareDeploy(ctx context.Context, contract string, args []any) (*preparedDeploy, error) {
	artifact, err := o.lookupArtifact(ctx, contract)
	if err != nil {
		return nil, err
	}

	parsed, err := artifact.ParsedABI()
	if err != nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: err}
	}
	if _, err := artifact.CreationCode(); err != nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: err}
	}

	coerced, err := domain.CoerceArgs(parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: fmt.Errorf("constructor: %w", err)}
	}

	return &preparedDeploy{artifact: artifact, abi: parsed, args: coerced}, nil
}

func (o *Orchestrator) deploy(ctx context.Context, signer *models.Signer, contract string, p *preparedDeploy) (common.Address, *models.Transaction, error) {
	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "deploying",
		Message: fmt.Sprintf("Deploying %s", contract),
		Spinner: true,
	})

	addr, tx, err := o.chain.Deploy(ctx, signer, p.artifact, p.args)
	if err != nil {
		o.progress.OnProgress(ctx, ProgressEvent{Stage: "failed", Message: fmt.Sprintf("Deploying %s failed", contract)})
		return common.Address{}, nil, domain.NewChainError("deploy "+contract, err)
	}

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "deployed",
		Message: fmt.Sprintf("%s deployed at %s", contract, addr.Hex()),
	})
	return addr, tx, nil
}

func (o *Orchestrator) lookupArtifact(ctx context.Context, contract string) (*models.Artifact, error) {
	if o.artifacts == nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: domain.ErrNotFound}
	}
	artifact, err := o.artifacts.GetArtifact(ctx, contract)
	if err != nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: err}
	}
	return artifact, nil
}

func (o *Orchestrator) encodeInitializer(contract string, contractABI *abi.ABI, args []any) ([]byte, error) {
	name := o.initializerName()
	method, ok := contractABI.Methods[name]
	if !ok {
		if len(args) > 0 {
			return nil, &domain.DeploymentError{Contract: contract, Err: fmt.Errorf("initializer %s not found in ABI", name)}
		}
		return []byte{}, nil
	}

	coerced, err := domain.CoerceArgs(method.Inputs, args)
	if err != nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: fmt.Errorf("%s: %w", name, err)}
	}

	data, err := contractABI.Pack(name, coerced...)
	if err != nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: fmt.Errorf("failed to encode %s: %w", name, err)}
	}
	return data, nil
}

// proxyLayout is the constructor shape of the configured proxy artifact
type proxyLayout int

const (
	// ERC1967Proxy(logic, data)
	proxyLayoutPlain proxyLayout = iota
	// OpenZeppelin 5 TransparentUpgradeableProxy(logic, initialOwner, data).
	// The proxy deploys its own ProxyAdmin owned by initialOwner.
	proxyLayoutOwner
	// OpenZeppelin 4 TransparentUpgradeableProxy(logic, admin_, data).
	// The admin must be a ProxyAdmin contract, never the deployer.
	proxyLayoutAdmin
)

func detectProxyLayout(proxyABI *abi.ABI) (proxyLayout, error) {
	inputs := proxyABI.Constructor.Inputs
	if n := len(inputs); n != 2 && n != 3 {
		return 0, fmt.Errorf("unsupported proxy constructor with %d inputs", n)
	}
	if inputs[0].Type.T != abi.AddressTy || inputs[len(inputs)-1].Type.T != abi.BytesTy {
		return 0, fmt.Errorf("unsupported proxy constructor %s", proxyABI.Constructor.Sig)
	}
	if len(inputs) == 2 {
		return proxyLayoutPlain, nil
	}
	if inputs[1].Type.T != abi.AddressTy {
		return 0, fmt.Errorf("unsupported proxy constructor %s", proxyABI.Constructor.Sig)
	}
	if strings.EqualFold(strings.Trim(inputs[1].Name, "_"), "admin") {
		return proxyLayoutAdmin, nil
	}
	return proxyLayoutOwner, nil
}

func (l proxyLayout) args(impl, owner common.Address, data []byte) []any {
	if l == proxyLayoutPlain {
		return []any{impl, data}
	}
	return []any{impl, owner, data}
}

// proxyPlan is a proxy deployment whose artifacts have been validated
type proxyPlan struct {
	name     string
	artifact *models.Artifact
	abi      *abi.ABI
	layout   proxyLayout
	admin    *preparedDeploy
}

// prepareProxy validates the proxy artifact, and the ProxyAdmin artifact when
// the proxy expects one, without touching the chain.
func (o *Orchestrator) prepareProxy(ctx context.Context, signer *models.Signer) (*proxyPlan, error) {
	name := o.proxyContract()
	artifact, err := o.lookupArtifact(ctx, name)
	if err != nil {
		return nil, err
	}
	parsed, err := artifact.ParsedABI()
	if err != nil {
		return nil, &domain.DeploymentError{Contract: name, Err: err}
	}
	if _, err := artifact.CreationCode(); err != nil {
		return nil, &domain.DeploymentError{Contract: name, Err: err}
	}
	layout, err := detectProxyLayout(parsed)
	if err != nil {
		return nil, &domain.DeploymentError{Contract: name, Err: err}
	}

	plan := &proxyPlan{name: name, artifact: artifact, abi: parsed, layout: layout}
	if layout != proxyLayoutAdmin {
		return plan, nil
	}

	if admin := o.cachedProxyAdmin(); admin != (common.Address{}) {
		return plan, nil
	}
	adminName := o.proxyAdminContract()
	adminArtifact, err := o.lookupArtifact(ctx, adminName)
	if err != nil {
		return nil, err
	}
	adminABI, err := adminArtifact.ParsedABI()
	if err != nil {
		return nil, &domain.DeploymentError{Contract: adminName, Err: err}
	}
	// ProxyAdmin() in OpenZeppelin 4, ProxyAdmin(initialOwner) in 5
	var args []any
	if len(adminABI.Constructor.Inputs) == 1 {
		args = []any{signer.Address}
	}
	if plan.admin, err = o.prepareDeploy(ctx, adminName, args); err != nil {
		return nil, err
	}
	return plan, nil
}

// ensureProxyAdmin returns the ProxyAdmin shared by the proxies of this run,
// deploying it on first use.
func (o *Orchestrator) ensureProxyAdmin(ctx context.Context, signer *models.Signer, prepared *preparedDeploy) (common.Address, error) {
	if admin := o.cachedProxyAdmin(); admin != (common.Address{}) {
		return admin, nil
	}

	name := o.proxyAdminContract()
	addr, tx, err := o.deploy(ctx, signer, name, prepared)
	if err != nil {
		return common.Address{}, err
	}

	o.mu.Lock()
	o.proxyAdmin = addr
	o.mu.Unlock()

	o.log.Info("deployed proxy admin", "contract", name, "address", addr.Hex(), "tx", tx.Hash.Hex())
	_, err = o.finishDeploy(ctx, &models.DeploymentRecord{
		Network:         o.cfg.NetworkName(),
		ChainID:         o.chainID(ctx),
		ContractName:    name,
		Address:         addr,
		Type:            models.SingletonDeployment,
		TransactionHash: tx.Hash,
		BlockNumber:     tx.BlockNumber,
		Deployer:        signer.Address,
		CreatedAt:       time.Now().UTC(),
	}, prepared.abi)
	return addr, err
}

func (o *Orchestrator) cachedProxyAdmin() common.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.proxyAdmin
}

func (o *Orchestrator) proxyAdminContract() string {
	if o.cfg.ProjectConfig != nil && o.cfg.ProjectConfig.Contracts.ProxyAdmin != "" {
		return o.cfg.ProjectConfig.Contracts.ProxyAdmin
	}
	return config.DefaultProxyAdminContract
}

func (o *Orchestrator) proxyContract() string {
	if o.cfg.ProjectConfig != nil && o.cfg.ProjectConfig.Contracts.Proxy != "" {
		return o.cfg.ProjectConfig.Contracts.Proxy
	}
	return config.DefaultProxyContract
}

func (o *Orchestrator) initializerName() string {
	if o.cfg.ProjectConfig != nil && o.cfg.ProjectConfig.Contracts.Initializer != "" {
		return o.cfg.ProjectConfig.Contracts.Initializer
	}
	return config.DefaultInitializer
}
