package testenv

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/chainlink-evm/gethwrappers/shared/generated/latest/link_token"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
)

// DeployToken deploys a mintable ERC20 owned by owner and mints supply to
// owner. The LinkToken contract stands in for any ERC20 the helpers target.
func DeployToken(ctx context.Context, chain *blockchain.Chain, owner *bind.TransactOpts, supply *big.Int) (common.Address, error) {
	address, tx, token, err := link_token.DeployLinkToken(blockchain.TransactOpts(ctx, owner), chain.Client)
	if err != nil {
		return common.Address{}, chain.SubmitFailed(blockchain.OpDeploy, err)
	}
	if _, err := chain.Confirm(ctx, blockchain.OpDeploy, owner.From, tx); err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy token: %w", err)
	}

	tx, err = token.GrantMintRole(blockchain.TransactOpts(ctx, owner), owner.From)
	if err != nil {
		return common.Address{}, chain.SubmitFailed(blockchain.OpGrantMintRole, err)
	}
	if _, err := chain.Confirm(ctx, blockchain.OpGrantMintRole, owner.From, tx); err != nil {
		return common.Address{}, fmt.Errorf("failed to grant mint role: %w", err)
	}

	if supply.Sign() > 0 {
		tx, err = token.Mint(blockchain.TransactOpts(ctx, owner), owner.From, supply)
		if err != nil {
			return common.Address{}, chain.SubmitFailed(blockchain.OpMint, err)
		}
		if _, err := chain.Confirm(ctx, blockchain.OpMint, owner.From, tx); err != nil {
			return common.Address{}, fmt.Errorf("failed to mint token supply: %w", err)
		}
	}

	chain.Logger().Info("Deployed token at %s with supply %s", address.Hex(), supply.String())
	return address, nil
}
