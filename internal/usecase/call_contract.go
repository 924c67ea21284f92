package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
)

// Method names of the EasySwap contracts used by the compound operations
const (
	MethodSetOrderBook = "setOrderBook"
	MethodOrderBook    = "orderBook"
	MethodMint         = "mint"
	MethodOwnerOf      = "ownerOf"
)

// Attach binds a handle to an already deployed contract. The address may be a
// hex address or an address book label. Unless probing is enabled nothing is
// sent to the chain; a contract missing at the address surfaces on first call.
func (o *Orchestrator) Attach(ctx context.Context, contract string, ref string) (*models.ContractHandle, error) {
	address, err := o.ResolveAddress(ctx, ref)
	if err != nil {
		return nil, err
	}

	artifact, err := o.lookupArtifact(ctx, contract)
	if err != nil {
		return nil, err
	}
	parsed, err := artifact.ParsedABI()
	if err != nil {
		return nil, &domain.DeploymentError{Contract: contract, Err: err}
	}

	handle := &models.ContractHandle{Name: contract, Address: address, ABI: parsed}

	if o.cfg.CheckCode {
		ok, err := o.chain.HasCode(ctx, address)
		if err != nil {
			return nil, domain.NewChainError("check code of "+handle.String(), err)
		}
		if !ok {
			return nil, &domain.ChainError{Op: "check code of " + handle.String(), Err: domain.ErrNoCode}
		}
	}

	o.addHandle(contract, handle)
	o.log.Debug("attached contract", "contract", contract, "address", address.Hex())
	return handle, nil
}

// Call submits a transaction invoking method on handle and waits for it to be
// included. A revert or a rejected submission is a ChainError; nothing is retried.
func (o *Orchestrator) Call(ctx context.Context, handle *models.ContractHandle, method string, args []any) (*models.Transaction, error) {
	if !handle.Resolved() {
		return nil, &domain.ConfigurationError{Op: "call " + method, Err: domain.ErrUnresolvedHandle}
	}

	signer, err := o.ResolveSigner(ctx)
	if err != nil {
		return nil, err
	}

	abiMethod, ok := handle.ABI.Methods[method]
	if !ok {
		return nil, &domain.ConfigurationError{
			Op:  "call " + method,
			Err: fmt.Errorf("method %s not found in %s ABI", method, handle.Name),
		}
	}
	coerced, err := domain.CoerceArgs(abiMethod.Inputs, args)
	if err != nil {
		return nil, &domain.ConfigurationError{Op: "call " + method, Err: err}
	}

	if err := o.Confirm(ctx, fmt.Sprintf("call %s.%s", handle.Name, method)); err != nil {
		return nil, err
	}

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "calling",
		Message: fmt.Sprintf("Calling %s.%s", handle.Name, method),
		Spinner: true,
	})

	tx, err := o.chain.Transact(ctx, signer, handle, method, coerced)
	if err != nil {
		o.progress.OnProgress(ctx, ProgressEvent{Stage: "failed", Message: fmt.Sprintf("%s.%s failed", handle.Name, method)})
		return nil, domain.NewChainError(fmt.Sprintf("call %s.%s", handle.Name, method), err)
	}

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "confirmed",
		Message: fmt.Sprintf("%s.%s confirmed in block %d", handle.Name, method, tx.BlockNumber),
	})
	o.log.Info("transaction confirmed",
		"contract", handle.Name,
		"method", method,
		"tx", tx.Hash.Hex(),
		"block", tx.BlockNumber,
	)
	return tx, nil
}

// WireContracts registers the order book with the vault so it may move escrowed
// assets. Both addresses must be known: the order book is initialized with the
// vault address, so the vault is always deployed first.
func (o *Orchestrator) WireContracts(ctx context.Context, vault *models.ContractHandle, orderBook common.Address) (*models.Transaction, error) {
	if !vault.Resolved() {
		return nil, &domain.ConfigurationError{Op: "wire contracts", Err: fmt.Errorf("vault: %w", domain.ErrUnresolvedHandle)}
	}
	if orderBook == (common.Address{}) {
		return nil, &domain.ConfigurationError{Op: "wire contracts", Err: fmt.Errorf("order book: %w", domain.ErrUnresolvedHandle)}
	}
	return o.Call(ctx, vault, MethodSetOrderBook, []any{orderBook})
}

// Mint mints test token tokenID to recipient
func (o *Orchestrator) Mint(ctx context.Context, token *models.ContractHandle, recipient common.Address, tokenID *big.Int) (*models.Transaction, error) {
	if tokenID == nil {
		return nil, &domain.ConfigurationError{Op: "mint", Err: fmt.Errorf("token id is required")}
	}
	return o.Call(ctx, token, MethodMint, []any{recipient, tokenID})
}

// OrderBookOf reads the order book the vault currently authorizes
func (o *Orchestrator) OrderBookOf(ctx context.Context, vault *models.ContractHandle) (common.Address, error) {
	return o.readAddress(ctx, vault, MethodOrderBook)
}

// OwnerOf reads the owner of a minted token
func (o *Orchestrator) OwnerOf(ctx context.Context, token *models.ContractHandle, tokenID *big.Int) (common.Address, error) {
	return o.readAddress(ctx, token, MethodOwnerOf, tokenID)
}

func (o *Orchestrator) readAddress(ctx context.Context, handle *models.ContractHandle, method string, args ...any) (common.Address, error) {
	if !handle.Resolved() {
		return common.Address{}, &domain.ConfigurationError{Op: "read " + method, Err: domain.ErrUnresolvedHandle}
	}
	if _, ok := handle.ABI.Methods[method]; !ok {
		return common.Address{}, &domain.ConfigurationError{
			Op:  "read " + method,
			Err: fmt.Errorf("method %s not found in %s ABI", method, handle.Name),
		}
	}

	out, err := o.chain.Call(ctx, handle, method, args)
	if err != nil {
		return common.Address{}, domain.NewChainError(fmt.Sprintf("read %s.%s", handle.Name, method), err)
	}
	if len(out) != 1 {
		return common.Address{}, &domain.ChainError{Op: "read " + method, Err: fmt.Errorf("expected 1 output, got %d", len(out))}
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, &domain.ChainError{Op: "read " + method, Err: fmt.Errorf("unexpected output type %T", out[0])}
	}
	return addr, nil
}
