// Package helpers holds the token setup operations shared by scenario tests.
// Every helper submits its transactions strictly in order and waits for each
// receipt before sending the next one; the first failure is returned as is.
package helpers

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
	"github.com/speedrun-hq/lyt-testing/pkg/contracts"
	"github.com/speedrun-hq/lyt-testing/pkg/testenv"
)

// ApproveAll approves spender for an unlimited amount of token from every
// wallet in env
func ApproveAll(ctx context.Context, env *testenv.Env, token, spender common.Address) error {
	erc20, err := contracts.NewERC20(token, env.Chain.Client)
	if err != nil {
		return fmt.Errorf("failed to create ERC20 contract: %w", err)
	}

	for _, wallet := range env.Wallets {
		tx, err := erc20.Approve(blockchain.TransactOpts(ctx, wallet), spender, env.Consts.Inf)
		if err != nil {
			return env.Chain.SubmitFailed(blockchain.OpApprove, err)
		}
		if _, err := env.Chain.Confirm(ctx, blockchain.OpApprove, wallet.From, tx); err != nil {
			return err
		}
	}

	env.Logger.Info("Approved %s on %s for %d wallets", spender.Hex(), token.Hex(), len(env.Wallets))
	return nil
}

// ClearFund sweeps the whole balance of each token held by each signer back
// to the fund keeper. Zero balances are still transferred.
func ClearFund(ctx context.Context, env *testenv.Env, signers []*bind.TransactOpts, tokens []common.Address) error {
	keeper := env.FundKeeper.Address()

	for _, signer := range signers {
		for _, token := range tokens {
			// a fresh handle per token, nothing is cached across iterations
			erc20, err := contracts.NewERC20(token, env.Chain.Client)
			if err != nil {
				return fmt.Errorf("failed to create ERC20 contract: %w", err)
			}

			balance, err := erc20.BalanceOf(&bind.CallOpts{Context: ctx}, signer.From)
			if err != nil {
				return fmt.Errorf("failed to get token balance of %s: %w", signer.From.Hex(), err)
			}

			tx, err := erc20.Transfer(blockchain.TransactOpts(ctx, signer), keeper, balance)
			if err != nil {
				return env.Chain.SubmitFailed(blockchain.OpClearFund, err)
			}
			if _, err := env.Chain.Confirm(ctx, blockchain.OpClearFund, signer.From, tx); err != nil {
				return err
			}
			env.Logger.Debug("Cleared %s of %s from %s", balance.String(), token.Hex(), signer.From.Hex())
		}
	}

	return nil
}

// FundToken has the fund keeper send amount of token to every recipient
func FundToken(ctx context.Context, env *testenv.Env, recipients []common.Address, token common.Address, amount *big.Int) error {
	return env.FundKeeper.TransferToMany(ctx, token, recipients, amount)
}

// TransferNative sends amount of the chain's native currency from one signer
// to an address
func TransferNative(ctx context.Context, env *testenv.Env, from *bind.TransactOpts, to common.Address, amount *big.Int) error {
	opts := blockchain.TransactOpts(ctx, from)
	opts.Value = amount

	// bind refuses to estimate gas for accounts without code
	code, err := env.Chain.Client.PendingCodeAt(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to get code at %s: %w", to.Hex(), err)
	}
	if len(code) == 0 && opts.GasLimit == 0 {
		opts.GasLimit = params.TxGas
	}

	// An empty ABI leaves only the plain value transfer
	recipient := bind.NewBoundContract(to, abi.ABI{}, env.Chain.Client, env.Chain.Client, env.Chain.Client)
	tx, err := recipient.Transfer(opts)
	if err != nil {
		return env.Chain.SubmitFailed(blockchain.OpTransferNative, err)
	}
	if _, err := env.Chain.Confirm(ctx, blockchain.OpTransferNative, from.From, tx); err != nil {
		return err
	}

	env.Logger.Debug("Sent %s wei from %s to %s", amount.String(), from.From.Hex(), to.Hex())
	return nil
}
