package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"

	"github.com/speedrun-hq/lyt-testing/pkg/logger"
	"github.com/speedrun-hq/lyt-testing/pkg/metrics"
)

// ErrTxReverted is returned when a transaction was mined with a failed status
var ErrTxReverted = errors.New("transaction reverted")

// SimulatedChainID is the chain ID used by go-ethereum's simulated backend
var SimulatedChainID = params.AllDevChainProtocolChanges.ChainID

// Backend is the client surface needed to bind contracts, send transactions
// and wait for receipts. Both *ethclient.Client and simulated.Client satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Chain holds the connection to a single EVM chain used by the test environment
type Chain struct {
	ChainID *big.Int
	Client  Backend

	recorder  *TxRecorder
	logger    logger.Logger
	txTimeout time.Duration

	// sim is set for simulated chains; blocks are mined on Confirm
	sim    *simulated.Backend
	simMu  sync.Mutex
	closer func() error
}

// Option configures a Chain
type Option func(*Chain)

// WithLogger sets the logger used for transaction tracing
func WithLogger(l logger.Logger) Option {
	return func(c *Chain) {
		c.logger = l
	}
}

// WithTxTimeout bounds how long Confirm waits for a receipt; zero means no bound
func WithTxTimeout(timeout time.Duration) Option {
	return func(c *Chain) {
		c.txTimeout = timeout
	}
}

func newChain(chainID *big.Int, client Backend, opts ...Option) *Chain {
	c := &Chain{
		ChainID:  chainID,
		Client:   client,
		recorder: NewTxRecorder(),
		logger:   &logger.EmptyLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to an RPC endpoint and reads its chain ID
func Dial(ctx context.Context, rpcURL string, opts ...Option) (*Chain, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to client: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	c := newChain(chainID, client, opts...)
	c.closer = func() error {
		client.Close()
		return nil
	}
	c.logger.Info("Connected to chain %s at %s", chainID.String(), rpcURL)
	return c, nil
}

// NewSimulatedChain wraps an in-memory simulated backend. Transactions are
// mined when Confirm is called.
func NewSimulatedChain(backend *simulated.Backend, opts ...Option) *Chain {
	c := newChain(new(big.Int).Set(SimulatedChainID), backend.Client(), opts...)
	c.sim = backend
	c.closer = backend.Close
	return c
}

// Recorder returns the transaction recorder of the chain
func (c *Chain) Recorder() *TxRecorder {
	return c.recorder
}

// Logger returns the chain logger
func (c *Chain) Logger() logger.Logger {
	return c.logger
}

// Commit mines a block on simulated chains and is a no-op otherwise
func (c *Chain) Commit() {
	if c.sim == nil {
		return
	}
	c.simMu.Lock()
	defer c.simMu.Unlock()
	c.sim.Commit()
}

// Confirm waits until tx is mined and returns its receipt. A reverted
// transaction yields ErrTxReverted together with the receipt.
func (c *Chain) Confirm(ctx context.Context, op string, from common.Address, tx *types.Transaction) (*types.Receipt, error) {
	if tx == nil {
		return nil, fmt.Errorf("%s: tx was nil, nothing to confirm", op)
	}

	c.recorder.Track(op, from, tx)
	metrics.TxSubmitted.WithLabelValues(op).Inc()
	c.logger.Debug("Submitted %s transaction %s from %s (nonce %d)", op, tx.Hash().Hex(), from.Hex(), tx.Nonce())

	start := time.Now()
	c.Commit()

	if c.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.txTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, c.Client, tx)
	if err != nil {
		c.recorder.MarkFailed(tx.Hash(), nil, err)
		metrics.TxFailed.WithLabelValues(op).Inc()
		return nil, fmt.Errorf("failed to wait for %s transaction %s: %w", op, tx.Hash().Hex(), err)
	}
	metrics.ConfirmationTime.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if receipt.Status == types.ReceiptStatusFailed {
		err := fmt.Errorf("%w: %s transaction %s", ErrTxReverted, op, tx.Hash().Hex())
		c.recorder.MarkFailed(tx.Hash(), receipt, err)
		metrics.TxFailed.WithLabelValues(op).Inc()
		c.logger.Error("%s transaction %s reverted (gas used: %d)", op, tx.Hash().Hex(), receipt.GasUsed)
		return receipt, err
	}

	c.recorder.MarkConfirmed(tx.Hash(), receipt)
	metrics.TxConfirmed.WithLabelValues(op).Inc()
	metrics.GasUsed.WithLabelValues(op).Observe(float64(receipt.GasUsed))
	c.logger.Debug("Confirmed %s transaction %s in block %s (gas used: %d)",
		op, tx.Hash().Hex(), receipt.BlockNumber.String(), receipt.GasUsed)

	return receipt, nil
}

// SubmitFailed accounts for a transaction that could not be sent at all, for
// example because gas estimation hit a revert
func (c *Chain) SubmitFailed(op string, err error) error {
	metrics.TxFailed.WithLabelValues(op).Inc()
	return fmt.Errorf("failed to submit %s transaction: %w", op, err)
}

// BalanceAt returns the latest native balance of account
func (c *Chain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.Client.BalanceAt(ctx, account, nil)
}

// Close releases the underlying client or simulated backend
func (c *Chain) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// NewSigner builds a keyed transactor for the given hex private key
func NewSigner(privateKeyHex string, chainID *big.Int) (*bind.TransactOpts, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return auth, nil
}

// GenerateSigner creates a transactor backed by a fresh random key
func GenerateSigner(chainID *big.Int) (*bind.TransactOpts, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return auth, nil
}

// TransactOpts returns a copy of signer bound to ctx, so per-call tweaks such
// as Value never leak back into the shared signer
func TransactOpts(ctx context.Context, signer *bind.TransactOpts) *bind.TransactOpts {
	opts := *signer
	opts.Context = ctx
	return &opts
}
