package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

// Built-in pipeline names
const (
	PipelineStandard = "standard"
	PipelineNFT      = "nft"
)

// RunPipelineParams contains parameters for running a pipeline
type RunPipelineParams struct {
	File    string // Pipeline YAML file, takes precedence over Builtin
	Builtin string // standard or nft
	DryRun  bool
}

// StepResult is the outcome of one executed step
type StepResult struct {
	Step        *domain.PipelineStep
	Address     common.Address
	Deployment  *models.DeploymentRecord
	Transaction *models.Transaction
}

// RunPipelineResult contains the result of running a pipeline
type RunPipelineResult struct {
	Plan     *domain.ExecutionPlan
	Steps    []*StepResult
	Executed bool
}

// RunPipeline executes a pipeline of orchestrator operations in dependency order.
// All local preconditions are checked before the first transaction; execution
// stops at the first failing step.
type RunPipeline struct {
	config   *config.RuntimeConfig
	orch     *Orchestrator
	loader   PipelineLoader
	progress ProgressSink
	log      *slog.Logger
}

// NewRunPipeline creates a new RunPipeline use case
func NewRunPipeline(cfg *config.RuntimeConfig, orch *Orchestrator, loader PipelineLoader, progress ProgressSink, log *slog.Logger) *RunPipeline {
	if progress == nil {
		progress = NopProgress{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &RunPipeline{
		config:   cfg,
		orch:     orch,
		loader:   loader,
		progress: progress,
		log:      log,
	}
}

// Run executes the run pipeline use case
func (uc *RunPipeline) Run(ctx context.Context, params RunPipelineParams) (*RunPipelineResult, error) {
	pipeline, err := uc.resolvePipeline(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := pipeline.Validate(); err != nil {
		return nil, &domain.ConfigurationError{Op: "validate pipeline", Err: err}
	}
	plan, err := pipeline.TopologicalSort()
	if err != nil {
		return nil, &domain.ConfigurationError{Op: "order pipeline", Err: err}
	}

	result := &RunPipelineResult{Plan: plan}
	if params.DryRun {
		return result, nil
	}

	if err := uc.checkPreconditions(ctx, plan); err != nil {
		return nil, err
	}

	actions := make([]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		actions = append(actions, describeStep(uc.config, step))
	}
	if err := uc.orch.Confirm(ctx, actions...); err != nil {
		return nil, err
	}

	exec := &pipelineExecution{
		uc:      uc,
		handles: make(map[string]*models.ContractHandle),
		outputs: make(map[string]common.Address),
	}

	for i, step := range plan.Steps {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "step",
			Current: i + 1,
			Total:   len(plan.Steps),
			Message: fmt.Sprintf("[%d/%d] %s", i+1, len(plan.Steps), describeStep(uc.config, step)),
		})

		stepResult, err := exec.run(ctx, step)
		if err != nil {
			result.Steps = append(result.Steps, &StepResult{Step: step})
			uc.log.Error("pipeline step failed", "pipeline", plan.Name, "step", step.Name, "error", err)
			return result, fmt.Errorf("step %s: %w", step.Name, err)
		}
		result.Steps = append(result.Steps, stepResult)
		exec.outputs[step.Name] = stepResult.Address
	}

	result.Executed = true
	uc.log.Info("pipeline completed", "pipeline", plan.Name, "steps", len(plan.Steps))
	return result, nil
}

func (uc *RunPipeline) resolvePipeline(ctx context.Context, params RunPipelineParams) (*domain.PipelineConfig, error) {
	if params.File != "" {
		if uc.loader == nil {
			return nil, &domain.ConfigurationError{Op: "load pipeline", Err: fmt.Errorf("no pipeline loader configured")}
		}
		pipeline, err := uc.loader.Load(ctx, params.File)
		if err != nil {
			return nil, domain.NewConfigurationError("load pipeline", err)
		}
		return pipeline, nil
	}

	var project *config.ProjectConfig
	if uc.config != nil {
		project = uc.config.ProjectConfig
	}

	switch strings.ToLower(params.Builtin) {
	case "", PipelineStandard:
		return StandardPipeline(project), nil
	case PipelineNFT:
		return NFTPipeline(project), nil
	default:
		return nil, &domain.ConfigurationError{
			Op:  "load pipeline",
			Err: fmt.Errorf("unknown pipeline %q (available: %s, %s)", params.Builtin, PipelineStandard, PipelineNFT),
		}
	}
}

// checkPreconditions resolves the signer and every artifact the plan needs and
// checks argument counts, so a broken plan fails before anything is broadcast.
func (uc *RunPipeline) checkPreconditions(ctx context.Context, plan *domain.ExecutionPlan) error {
	signer, err := uc.orch.ResolveSigner(ctx)
	if err != nil {
		return err
	}

	for _, step := range plan.Steps {
		contract := stepContract(uc.config, step)
		artifact, err := uc.orch.lookupArtifact(ctx, contract)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		parsed, err := artifact.ParsedABI()
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, &domain.DeploymentError{Contract: contract, Err: err})
		}

		switch step.Action {
		case domain.ActionDeploy, domain.ActionDeployProxy:
			if _, err := artifact.CreationCode(); err != nil {
				return fmt.Errorf("step %s: %w", step.Name, &domain.DeploymentError{Contract: contract, Err: err})
			}
			if got, want := len(step.Args), len(parsed.Constructor.Inputs); got != want {
				return &domain.ConfigurationError{
					Op:  "step " + step.Name,
					Err: fmt.Errorf("%s constructor expects %d arguments, got %d", contract, want, got),
				}
			}
			if step.Action == domain.ActionDeployProxy {
				if _, err := uc.orch.prepareProxy(ctx, signer); err != nil {
					return fmt.Errorf("step %s: %w", step.Name, err)
				}
				init := uc.orch.initializerName()
				method, ok := parsed.Methods[init]
				if !ok && len(step.Init) > 0 {
					return &domain.ConfigurationError{Op: "step " + step.Name, Err: fmt.Errorf("%s has no %s method", contract, init)}
				}
				if ok && len(method.Inputs) != len(step.Init) {
					return &domain.ConfigurationError{
						Op:  "step " + step.Name,
						Err: fmt.Errorf("%s.%s expects %d arguments, got %d", contract, init, len(method.Inputs), len(step.Init)),
					}
				}
			}

		case domain.ActionCall, domain.ActionWire, domain.ActionMint:
			method := stepMethod(step)
			abiMethod, ok := parsed.Methods[method]
			if !ok {
				return &domain.ConfigurationError{Op: "step " + step.Name, Err: fmt.Errorf("method %s not found in %s ABI", method, contract)}
			}
			if got, want := len(step.Args), len(abiMethod.Inputs); got != want {
				return &domain.ConfigurationError{
					Op:  "step " + step.Name,
					Err: fmt.Errorf("%s.%s expects %d arguments, got %d", contract, method, want, got),
				}
			}
		}
	}
	return nil
}

// pipelineExecution carries the addresses and handles produced by earlier steps
type pipelineExecution struct {
	uc      *RunPipeline
	handles map[string]*models.ContractHandle
	outputs map[string]common.Address
}

func (e *pipelineExecution) run(ctx context.Context, step *domain.PipelineStep) (*StepResult, error) {
	orch := e.uc.orch
	contract := stepContract(e.uc.config, step)

	args, err := e.expandAll(ctx, step.Args)
	if err != nil {
		return nil, err
	}

	switch step.Action {
	case domain.ActionDeployProxy, domain.ActionDeploy:
		init, err := e.expandAll(ctx, step.Init)
		if err != nil {
			return nil, err
		}
		deployParams := DeployParams{
			Contract:        contract,
			Label:           step.Label,
			ConstructorArgs: toAny(args),
			InitializerArgs: toAny(init),
		}

		var record *models.DeploymentRecord
		if step.Action == domain.ActionDeployProxy {
			record, err = orch.DeployUpgradeable(ctx, deployParams)
		} else {
			record, err = orch.Deploy(ctx, deployParams)
		}
		if err != nil {
			return nil, err
		}
		handle, _ := orch.Handle(record.Key())
		e.handles[step.Name] = handle
		return &StepResult{Step: step, Address: record.Address, Deployment: record}, nil

	case domain.ActionAttach:
		handle, err := e.handle(ctx, step, contract)
		if err != nil {
			return nil, err
		}
		e.handles[step.Name] = handle
		return &StepResult{Step: step, Address: handle.Address}, nil

	case domain.ActionCall:
		handle, err := e.handle(ctx, step, contract)
		if err != nil {
			return nil, err
		}
		tx, err := orch.Call(ctx, handle, step.Method, toAny(args))
		if err != nil {
			return nil, err
		}
		return &StepResult{Step: step, Address: handle.Address, Transaction: tx}, nil

	case domain.ActionWire:
		vault, err := e.handle(ctx, step, contract)
		if err != nil {
			return nil, err
		}
		orderBook, err := orch.ResolveAddress(ctx, args[0])
		if err != nil {
			return nil, err
		}
		tx, err := orch.WireContracts(ctx, vault, orderBook)
		if err != nil {
			return nil, err
		}
		return &StepResult{Step: step, Address: vault.Address, Transaction: tx}, nil

	case domain.ActionMint:
		token, err := e.handle(ctx, step, contract)
		if err != nil {
			return nil, err
		}
		recipient, err := orch.ResolveAddress(ctx, args[0])
		if err != nil {
			return nil, err
		}
		tokenID, ok := new(big.Int).SetString(args[1], 0)
		if !ok {
			return nil, &domain.ConfigurationError{Op: "mint", Err: fmt.Errorf("invalid token id %q", args[1])}
		}
		tx, err := orch.Mint(ctx, token, recipient, tokenID)
		if err != nil {
			return nil, err
		}
		return &StepResult{Step: step, Address: token.Address, Transaction: tx}, nil
	}

	return nil, &domain.ConfigurationError{Op: "step " + step.Name, Err: fmt.Errorf("unknown action '%s'", step.Action)}
}

// handle reuses the handle of a referenced step when the target is exactly
// ${Step.address}, otherwise it attaches to the expanded target.
func (e *pipelineExecution) handle(ctx context.Context, step *domain.PipelineStep, contract string) (*models.ContractHandle, error) {
	if refs := domain.StepReferences(step.Target); len(refs) == 1 && step.Target == "${"+refs[0]+".address}" {
		if h, ok := e.handles[refs[0]]; ok && h.Resolved() {
			return h, nil
		}
	}

	target, err := e.expand(ctx, step.Target)
	if err != nil {
		return nil, err
	}
	return e.uc.orch.Attach(ctx, contract, target)
}

func (e *pipelineExecution) expand(ctx context.Context, value string) (string, error) {
	signer, err := e.uc.orch.ResolveSigner(ctx)
	if err != nil {
		return "", err
	}
	out, err := domain.ExpandReferences(value, signer.Address.Hex(), func(step string) (string, bool) {
		addr, ok := e.outputs[step]
		if !ok {
			return "", false
		}
		return addr.Hex(), true
	})
	if err != nil {
		return "", &domain.ConfigurationError{Op: "expand references", Err: fmt.Errorf("%w: %v", domain.ErrUnresolvedHandle, err)}
	}
	return out, nil
}

func (e *pipelineExecution) expandAll(ctx context.Context, values []string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		expanded, err := e.expand(ctx, v)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}

func toAny(values []string) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// stepContract returns the artifact a step works with. Wire and mint steps
// default to the configured vault and NFT contracts.
func stepContract(cfg *config.RuntimeConfig, step *domain.PipelineStep) string {
	if step.Contract != "" {
		return step.Contract
	}

	contracts := config.ContractsConfig{}
	if cfg != nil && cfg.ProjectConfig != nil {
		contracts = cfg.ProjectConfig.Contracts
	}
	switch step.Action {
	case domain.ActionWire:
		if contracts.Vault != "" {
			return contracts.Vault
		}
		return config.DefaultVaultContract
	case domain.ActionMint:
		if contracts.NFT != "" {
			return contracts.NFT
		}
		return config.DefaultNFTContract
	}
	return ""
}

func stepMethod(step *domain.PipelineStep) string {
	switch step.Action {
	case domain.ActionWire:
		return MethodSetOrderBook
	case domain.ActionMint:
		return MethodMint
	}
	return step.Method
}

func describeStep(cfg *config.RuntimeConfig, step *domain.PipelineStep) string {
	contract := stepContract(cfg, step)
	switch step.Action {
	case domain.ActionDeployProxy:
		return fmt.Sprintf("%s: deploy %s behind a proxy", step.Name, contract)
	case domain.ActionDeploy:
		return fmt.Sprintf("%s: deploy %s", step.Name, contract)
	case domain.ActionAttach:
		return fmt.Sprintf("%s: attach %s at %s", step.Name, contract, step.Target)
	case domain.ActionCall:
		return fmt.Sprintf("%s: call %s.%s on %s", step.Name, contract, step.Method, step.Target)
	case domain.ActionWire:
		return fmt.Sprintf("%s: register %s with %s %s", step.Name, strings.Join(step.Args, ""), contract, step.Target)
	case domain.ActionMint:
		return fmt.Sprintf("%s: mint token %s on %s %s", step.Name, strings.Join(step.Args[1:], ""), contract, step.Target)
	}
	return step.Name
}

// StandardPipeline deploys the vault and order book behind proxies and
// registers the order book with the vault.
func StandardPipeline(project *config.ProjectConfig) *domain.PipelineConfig {
	cfg := defaultedProject(project)

	return &domain.PipelineConfig{
		Name: PipelineStandard,
		Steps: map[string]*domain.StepConfig{
			"Vault": {
				Action:   domain.ActionDeployProxy,
				Contract: cfg.Contracts.Vault,
			},
			"OrderBook": {
				Action:   domain.ActionDeployProxy,
				Contract: cfg.Contracts.OrderBook,
				Init: []string{
					strconv.FormatUint(cfg.OrderBook.ProtocolShare, 10),
					"${Vault.address}",
					cfg.OrderBook.EIP712Name,
					cfg.OrderBook.EIP712Version,
				},
				Deps: []string{"Vault"},
			},
			"Wire": {
				Action:   domain.ActionWire,
				Contract: cfg.Contracts.Vault,
				Target:   "${Vault.address}",
				Args:     []string{"${OrderBook.address}"},
				Deps:     []string{"Vault", "OrderBook"},
			},
		},
	}
}

// NFTPipeline deploys the test NFT and mints token 10 to the signer
func NFTPipeline(project *config.ProjectConfig) *domain.PipelineConfig {
	cfg := defaultedProject(project)

	return &domain.PipelineConfig{
		Name: PipelineNFT,
		Steps: map[string]*domain.StepConfig{
			"NFT": {
				Action:   domain.ActionDeploy,
				Contract: cfg.Contracts.NFT,
			},
			"Mint": {
				Action:   domain.ActionMint,
				Contract: cfg.Contracts.NFT,
				Target:   "${NFT.address}",
				Args:     []string{domain.SignerRef, "10"},
				Deps:     []string{"NFT"},
			},
		},
	}
}

func defaultedProject(project *config.ProjectConfig) *config.ProjectConfig {
	cfg := &config.ProjectConfig{}
	if project != nil {
		copied := *project
		cfg = &copied
	}
	cfg.ApplyDefaults()
	return cfg
}
