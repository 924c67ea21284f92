package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/esdeploy/internal/domain"
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/domain/models"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// EIP-1967 storage slots
var (
	ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	AdminSlot          = common.HexToHash("0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
)

const (
	defaultConfirmTimeout = 5 * time.Minute
	defaultPollInterval   = time.Second
	dialAttempts          = 3
)

// Backend is what the client needs from a node connection.
// *ethclient.Client and simulated.Client both satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.ChainIDReader
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// Client implements usecase.ChainClient over a JSON-RPC node. The connection
// is opened on first use so commands that never touch the chain never dial.
type Client struct {
	cfg            *config.RuntimeConfig
	log            *slog.Logger
	confirmTimeout time.Duration
	pollInterval   time.Duration

	mu      sync.Mutex
	backend Backend
	chainID *big.Int
}

// NewClient creates a client for the configured network
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	timeout := defaultConfirmTimeout
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &Client{
		cfg:            cfg,
		log:            log.With("component", "chain"),
		confirmTimeout: timeout,
		pollInterval:   defaultPollInterval,
	}
}

// NewClientWithBackend creates a client over an existing connection
func NewClientWithBackend(backend Backend, log *slog.Logger) *Client {
	return &Client{
		log:            log.With("component", "chain"),
		backend:        backend,
		confirmTimeout: defaultConfirmTimeout,
		pollInterval:   defaultPollInterval,
	}
}

// connect dials the node and checks the chain ID against the configuration
func (c *Client) connect(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	if c.cfg == nil || c.cfg.Network == nil || c.cfg.Network.RPCURL == "" {
		return nil, &domain.ConfigurationError{Op: "connect", Err: domain.ErrNoNetwork}
	}

	network := c.cfg.Network
	client, err := retry.DoWithData(func() (*ethclient.Client, error) {
		client, err := ethclient.DialContext(ctx, network.RPCURL)
		if err != nil {
			return nil, err
		}
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, err
		}
		c.chainID = id
		return client, nil
	},
		retry.Context(ctx),
		retry.Attempts(dialAttempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			c.log.Debug("retrying RPC connection", "network", network.Name, "attempt", attempt+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", network.Name, err)
	}

	if network.ChainID != 0 && c.chainID.Uint64() != network.ChainID {
		client.Close()
		return nil, &domain.ConfigurationError{
			Op:  "connect",
			Err: fmt.Errorf("chain ID mismatch on %s: expected %d, got %d", network.Name, network.ChainID, c.chainID.Uint64()),
		}
	}

	c.log.Debug("connected", "network", network.Name, "chain_id", c.chainID.Uint64())
	c.backend = client
	return client, nil
}

// ChainID returns the chain ID of the connected network
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return cached.Uint64(), nil
	}

	id, err := backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	return id.Uint64(), nil
}

// HasCode reports whether contract code exists at address
func (c *Client) HasCode(ctx context.Context, address common.Address) (bool, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return false, err
	}
	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return len(code) > 0, nil
}

// ProxySlots reads the EIP-1967 implementation and admin slots
func (c *Client) ProxySlots(ctx context.Context, proxy common.Address) (common.Address, common.Address, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	impl, err := backend.StorageAt(ctx, proxy, ImplementationSlot, nil)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("failed to read implementation slot: %w", err)
	}
	admin, err := backend.StorageAt(ctx, proxy, AdminSlot, nil)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("failed to read admin slot: %w", err)
	}
	return common.BytesToAddress(impl), common.BytesToAddress(admin), nil
}

// Deploy sends the creation transaction and waits for it to be mined
func (c *Client) Deploy(ctx context.Context, signer *models.Signer, artifact *models.Artifact, args []any) (common.Address, *models.Transaction, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return common.Address{}, nil, err
	}

	parsed, err := artifact.ParsedABI()
	if err != nil {
		return common.Address{}, nil, err
	}
	code, err := artifact.CreationCode()
	if err != nil {
		return common.Address{}, nil, err
	}
	opts, err := c.transactOpts(ctx, signer)
	if err != nil {
		return common.Address{}, nil, err
	}

	address, tx, _, err := bind.DeployContract(opts, *parsed, code, backend, args...)
	if err != nil {
		return common.Address{}, nil, submissionError(err)
	}
	c.log.Debug("deployment sent", "contract", artifact.ContractName, "tx", tx.Hash().Hex(), "address", address.Hex())

	receipt, err := c.confirm(ctx, backend, signer.Address, tx)
	record := newTransaction(tx, receipt, signer.Address, "", args)
	record.Target = address
	if err != nil {
		record.Reason = err.Error()
		return common.Address{}, record, err
	}
	if receipt.ContractAddress != (common.Address{}) {
		address = receipt.ContractAddress
		record.Target = address
	}
	return address, record, nil
}

// Transact invokes method on the handle's contract and waits for it to be mined
func (c *Client) Transact(ctx context.Context, signer *models.Signer, handle *models.ContractHandle, method string, args []any) (*models.Transaction, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	// A call to an account without code would succeed silently
	code, err := backend.CodeAt(ctx, handle.Address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check code: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoCode, handle.Address.Hex())
	}

	opts, err := c.transactOpts(ctx, signer)
	if err != nil {
		return nil, err
	}

	bound := bind.NewBoundContract(handle.Address, *handle.ABI, backend, backend, backend)
	tx, err := bound.Transact(opts, method, args...)
	if err != nil {
		return nil, submissionError(err)
	}
	c.log.Debug("transaction sent", "contract", handle.Name, "method", method, "tx", tx.Hash().Hex())

	receipt, err := c.confirm(ctx, backend, signer.Address, tx)
	record := newTransaction(tx, receipt, signer.Address, method, args)
	if err != nil {
		record.Reason = err.Error()
		return record, err
	}
	return record, nil
}

// Call performs a read-only call against the latest block
func (c *Client) Call(ctx context.Context, handle *models.ContractHandle, method string, args []any) ([]any, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	bound := bind.NewBoundContract(handle.Address, *handle.ABI, backend, backend, backend)
	var out []any
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		if strings.Contains(err.Error(), "no contract code") {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoCode, handle.Address.Hex())
		}
		return nil, fmt.Errorf("call %s failed: %w", method, err)
	}
	return out, nil
}

func (c *Client) transactOpts(ctx context.Context, signer *models.Signer) (*bind.TransactOpts, error) {
	if signer == nil || signer.Key == nil {
		return nil, &domain.ConfigurationError{Op: "sign", Err: domain.ErrMissingSigner}
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(signer.Key, new(big.Int).SetUint64(chainID))
	if err != nil {
		return nil, &domain.ConfigurationError{Op: "sign", Err: err}
	}
	opts.Context = ctx
	return opts, nil
}

// confirm waits for the receipt and turns a failed status into ErrReverted
func (c *Client) confirm(ctx context.Context, backend Backend, from common.Address, tx *types.Transaction) (*types.Receipt, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := waitMinedWithInterval(ctxTimeout, c.pollInterval, backend, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("tx %s failed to confirm: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason, rerr := errorReasonFromTx(ctxTimeout, backend, from, tx, receipt)
		if rerr == nil && reason != "" {
			return receipt, fmt.Errorf("%w: tx %s: %s", domain.ErrReverted, tx.Hash().Hex(), reason)
		}
		return receipt, fmt.Errorf("%w: tx %s, could not decode error reason", domain.ErrReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

func waitMinedWithInterval(ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}

// submissionError classifies errors from gas estimation and sending. A revert
// during estimation means the transaction would fail on-chain.
func submissionError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "revert") {
		if reason, perr := jsonErrorData(err); perr == nil && reason != "" {
			return fmt.Errorf("%w: %v (%s)", domain.ErrReverted, err, reason)
		}
		return fmt.Errorf("%w: %v", domain.ErrReverted, err)
	}
	return fmt.Errorf("failed to send transaction: %w", err)
}

func newTransaction(tx *types.Transaction, receipt *types.Receipt, from common.Address, method string, args []any) *models.Transaction {
	record := &models.Transaction{
		Method:    method,
		Args:      args,
		Hash:      tx.Hash(),
		Sender:    from,
		Nonce:     tx.Nonce(),
		Status:    models.TransactionStatusFailed,
		CreatedAt: time.Now().UTC(),
	}
	if tx.To() != nil {
		record.Target = *tx.To()
	}
	if receipt != nil {
		if receipt.BlockNumber != nil {
			record.BlockNumber = receipt.BlockNumber.Uint64()
		}
		record.GasUsed = receipt.GasUsed
		if receipt.Status == types.ReceiptStatusSuccessful {
			record.Status = models.TransactionStatusConfirmed
		}
	}
	return record
}

var _ usecase.ChainClient = (*Client)(nil)
