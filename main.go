package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"github.com/speedrun-hq/lyt-testing/pkg/config"
	"github.com/speedrun-hq/lyt-testing/pkg/contracts"
	"github.com/speedrun-hq/lyt-testing/pkg/helpers"
	"github.com/speedrun-hq/lyt-testing/pkg/testenv"
)

const usage = `usage: lyt-testing <command> [flags]

commands:
  approve-all   approve a spender for an unlimited amount from every wallet
  clear-fund    sweep token balances of every wallet back to the fund keeper
  fund          send tokens from the fund keeper to recipients
  send-native   send native currency from a wallet
  balances      print token and native balances of the keeper and wallets`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Simulated() {
		log.Fatalf("RPC_URL is required, the CLI only runs against a live chain")
	}

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	env, err := testenv.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build environment: %v", err)
	}
	defer env.Close()

	if err := run(ctx, env, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, env *testenv.Env, command string, args []string) error {
	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	tokens := flags.StringSlice("token", []string{env.QiLyt.Address().Hex()}, "token address(es)")

	switch command {
	case "approve-all":
		spender := flags.String("spender", "", "spender address")
		if err := flags.Parse(args); err != nil {
			return err
		}
		spenderAddr, err := parseAddress(*spender)
		if err != nil {
			return err
		}
		for _, token := range *tokens {
			tokenAddr, err := parseAddress(token)
			if err != nil {
				return err
			}
			if err := helpers.ApproveAll(ctx, env, tokenAddr, spenderAddr); err != nil {
				return err
			}
		}
		return nil

	case "clear-fund":
		if err := flags.Parse(args); err != nil {
			return err
		}
		tokenAddrs, err := parseAddresses(*tokens)
		if err != nil {
			return err
		}
		return helpers.ClearFund(ctx, env, env.Wallets, tokenAddrs)

	case "fund":
		amount := flags.String("amount", "", "amount in base units")
		to := flags.StringSlice("to", nil, "recipient addresses (default: every wallet)")
		if err := flags.Parse(args); err != nil {
			return err
		}
		value, err := parseAmount(*amount)
		if err != nil {
			return err
		}
		recipients := env.WalletAddresses()
		if len(*to) > 0 {
			if recipients, err = parseAddresses(*to); err != nil {
				return err
			}
		}
		tokenAddrs, err := parseAddresses(*tokens)
		if err != nil {
			return err
		}
		for _, token := range tokenAddrs {
			if err := helpers.FundToken(ctx, env, recipients, token, value); err != nil {
				return err
			}
		}
		return nil

	case "send-native":
		from := flags.Int("from", 0, "index of the sending wallet")
		to := flags.String("to", "", "recipient address")
		amount := flags.String("amount", "", "amount in wei")
		if err := flags.Parse(args); err != nil {
			return err
		}
		if *from < 0 || *from >= len(env.Wallets) {
			return fmt.Errorf("wallet index %d out of range [0, %d)", *from, len(env.Wallets))
		}
		toAddr, err := parseAddress(*to)
		if err != nil {
			return err
		}
		value, err := parseAmount(*amount)
		if err != nil {
			return err
		}
		return helpers.TransferNative(ctx, env, env.Wallets[*from], toAddr, value)

	case "balances":
		if err := flags.Parse(args); err != nil {
			return err
		}
		tokenAddrs, err := parseAddresses(*tokens)
		if err != nil {
			return err
		}
		return printBalances(ctx, env, tokenAddrs)
	}

	return fmt.Errorf("unknown command %q\n%s", command, usage)
}

func printBalances(ctx context.Context, env *testenv.Env, tokens []common.Address) error {
	owners := append([]common.Address{env.FundKeeper.Address()}, env.WalletAddresses()...)
	for i, owner := range owners {
		label := fmt.Sprintf("wallet %d", i-1)
		if i == 0 {
			label = "fund keeper"
		}

		native, err := env.Chain.BalanceAt(ctx, owner)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %s native=%s\n", label, owner.Hex(), native.String())

		for _, token := range tokens {
			erc20, err := contracts.NewERC20(token, env.Chain.Client)
			if err != nil {
				return err
			}
			balance, err := erc20.BalanceOf(&bind.CallOpts{Context: ctx}, owner)
			if err != nil {
				return err
			}
			fmt.Printf("%-12s   %s=%s\n", "", token.Hex(), balance.String())
		}
	}
	return nil
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address: %q", value)
	}
	return common.HexToAddress(value), nil
}

func parseAddresses(values []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(values))
	for _, value := range values {
		address, err := parseAddress(value)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %q", value)
	}
	return amount, nil
}
