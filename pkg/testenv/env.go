// Package testenv builds the shared environment that token helpers and
// scenario tests run against: signer wallets, a fund keeper, numeric
// constants and named token handles.
package testenv

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
	"github.com/speedrun-hq/lyt-testing/pkg/config"
	"github.com/speedrun-hq/lyt-testing/pkg/contracts"
	"github.com/speedrun-hq/lyt-testing/pkg/logger"
)

// Consts holds the numeric constants shared by tests
type Consts struct {
	// Inf is the unlimited approval amount (2^256 - 1)
	Inf *big.Int
	// OneE18 is one whole token with 18 decimals
	OneE18 *big.Int
	// DefaultFund is the token amount handed to a wallet by default
	DefaultFund *big.Int
}

// DefaultConsts returns fresh copies of the shared constants
func DefaultConsts() Consts {
	oneE18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return Consts{
		Inf:         new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)),
		OneE18:      oneE18,
		DefaultFund: new(big.Int).Mul(big.NewInt(1000), oneE18),
	}
}

// Env is the test environment threaded through every helper call
type Env struct {
	Chain      *blockchain.Chain
	Wallets    []*bind.TransactOpts
	FundKeeper *FundKeeper
	Consts     Consts
	QiLyt      *contracts.ERC20
	Logger     logger.Logger
}

// WalletAddresses returns the addresses of every wallet, in order
func (e *Env) WalletAddresses() []common.Address {
	addresses := make([]common.Address, 0, len(e.Wallets))
	for _, wallet := range e.Wallets {
		addresses = append(addresses, wallet.From)
	}
	return addresses
}

// Recorder returns the recorder of every transaction sent in this environment
func (e *Env) Recorder() *blockchain.TxRecorder {
	return e.Chain.Recorder()
}

// Close releases the chain connection
func (e *Env) Close() error {
	return e.Chain.Close()
}

// Build creates a fresh simulated environment with the default configuration
func Build(t *testing.T) *Env {
	t.Helper()
	return BuildWithConfig(t, config.DefaultConfig())
}

// BuildWithConfig creates a fresh simulated environment: the fund keeper and
// cfg.NumWallets wallets are prefunded with native currency, QiLyt is deployed
// and its supply minted to the fund keeper. Everything is torn down when the
// test finishes.
func BuildWithConfig(t *testing.T, cfg *config.Config) *Env {
	t.Helper()

	ctx := t.Context()
	log := cfg.NewLogger().WithScope("testenv")

	keeper, err := blockchain.GenerateSigner(blockchain.SimulatedChainID)
	require.NoError(t, err, "failed to generate fund keeper key")

	genesis := types.GenesisAlloc{
		keeper.From: {Balance: new(big.Int).Set(cfg.PrefundWei)},
	}

	wallets := make([]*bind.TransactOpts, 0, cfg.NumWallets)
	for range cfg.NumWallets {
		wallet, err := blockchain.GenerateSigner(blockchain.SimulatedChainID)
		require.NoError(t, err, "failed to generate wallet key")

		genesis[wallet.From] = types.Account{Balance: new(big.Int).Set(cfg.PrefundWei)}
		wallets = append(wallets, wallet)
	}

	backend := simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50_000_000))
	chain := blockchain.NewSimulatedChain(backend,
		blockchain.WithLogger(log),
		blockchain.WithTxTimeout(cfg.TxTimeout),
	)
	t.Cleanup(func() {
		_ = chain.Close()
	})

	tokenAddress, err := DeployToken(ctx, chain, keeper, cfg.TokenSupply)
	require.NoError(t, err, "failed to deploy QiLyt")

	env, err := assemble(chain, keeper, wallets, tokenAddress, log)
	require.NoError(t, err)

	log.Info("Built simulated environment with %d wallets, fund keeper %s", len(wallets), keeper.From.Hex())
	return env
}

// New connects to the live chain described by cfg and loads the configured
// wallets, fund keeper and QiLyt address
func New(ctx context.Context, cfg *config.Config) (*Env, error) {
	if cfg.Simulated() {
		return nil, errors.New("RPC_URL is not set; use Build for a simulated environment")
	}

	log := cfg.NewLogger().WithScope("testenv")
	chain, err := blockchain.Dial(ctx, cfg.RPCURL,
		blockchain.WithLogger(log),
		blockchain.WithTxTimeout(cfg.TxTimeout),
	)
	if err != nil {
		return nil, err
	}

	keeper, err := blockchain.NewSigner(cfg.FundKeeperKey, chain.ChainID)
	if err != nil {
		_ = chain.Close()
		return nil, fmt.Errorf("failed to load fund keeper: %w", err)
	}

	wallets := make([]*bind.TransactOpts, 0, len(cfg.WalletKeys))
	for i, key := range cfg.WalletKeys {
		wallet, err := blockchain.NewSigner(key, chain.ChainID)
		if err != nil {
			_ = chain.Close()
			return nil, fmt.Errorf("failed to load wallet %d: %w", i, err)
		}
		wallets = append(wallets, wallet)
	}

	env, err := assemble(chain, keeper, wallets, common.HexToAddress(cfg.QiLytAddress), log)
	if err != nil {
		_ = chain.Close()
		return nil, err
	}

	log.Info("Loaded environment on %s with %d wallets", config.DescribeChain(chain.ChainID.Int64()), len(wallets))
	return env, nil
}

func assemble(chain *blockchain.Chain, keeper *bind.TransactOpts, wallets []*bind.TransactOpts, qiLyt common.Address, log logger.Logger) (*Env, error) {
	token, err := contracts.NewERC20(qiLyt, chain.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to bind QiLyt: %w", err)
	}

	return &Env{
		Chain:      chain,
		Wallets:    wallets,
		FundKeeper: NewFundKeeper(keeper, chain),
		Consts:     DefaultConsts(),
		QiLyt:      token,
		Logger:     log,
	}, nil
}
