package testenv

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
	"github.com/speedrun-hq/lyt-testing/pkg/contracts"
)

// ErrInsufficientBalance is returned when the fund keeper cannot cover a distribution
var ErrInsufficientBalance = errors.New("insufficient fund keeper balance")

// FundKeeper is the custodian account that collects test tokens between
// scenarios and hands them back out
type FundKeeper struct {
	Auth  *bind.TransactOpts
	chain *blockchain.Chain
}

// NewFundKeeper binds a custodian signer to a chain
func NewFundKeeper(auth *bind.TransactOpts, chain *blockchain.Chain) *FundKeeper {
	return &FundKeeper{
		Auth:  auth,
		chain: chain,
	}
}

// Address returns the custodian address
func (k *FundKeeper) Address() common.Address {
	return k.Auth.From
}

// TransferToMany sends amount of token to every recipient, one confirmed
// transfer at a time. The custodian balance is checked up front so that an
// insufficient balance fails before any transfer is submitted.
func (k *FundKeeper) TransferToMany(ctx context.Context, token common.Address, recipients []common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid transfer amount: %v", amount)
	}

	erc20, err := contracts.NewERC20(token, k.chain.Client)
	if err != nil {
		return fmt.Errorf("failed to create ERC20 contract: %w", err)
	}

	balance, err := erc20.BalanceOf(&bind.CallOpts{Context: ctx}, k.Address())
	if err != nil {
		return fmt.Errorf("failed to get fund keeper balance: %w", err)
	}

	required := new(big.Int).Mul(amount, big.NewInt(int64(len(recipients))))
	if balance.Cmp(required) < 0 {
		return fmt.Errorf("%w: have %s, need %s of token %s",
			ErrInsufficientBalance, balance.String(), required.String(), token.Hex())
	}

	for _, recipient := range recipients {
		tx, err := erc20.Transfer(blockchain.TransactOpts(ctx, k.Auth), recipient, amount)
		if err != nil {
			return k.chain.SubmitFailed(blockchain.OpFund, err)
		}
		if _, err := k.chain.Confirm(ctx, blockchain.OpFund, k.Address(), tx); err != nil {
			return err
		}
	}

	k.chain.Logger().Info("Fund keeper sent %s of %s to %d recipients", amount.String(), token.Hex(), len(recipients))
	return nil
}
