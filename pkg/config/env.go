package config

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/speedrun-hq/lyt-testing/pkg/logger"
)

const (
	// DefaultNumWallets defines how many wallets a simulated environment creates
	DefaultNumWallets = 3

	// DefaultPrefundWei is the native balance of every simulated account (1,000,000 ETH)
	DefaultPrefundWei = "1000000000000000000000000"

	// DefaultTokenSupply is the amount of QiLyt minted to the fund keeper (1,000,000 tokens)
	DefaultTokenSupply = "1000000000000000000000000"

	// DefaultTxTimeout defines the default receipt wait timeout in seconds
	DefaultTxTimeout = 60

	// DefaultLogColoring defines whether log output is colored
	DefaultLogColoring = false
)

// GetEnvRPCURL returns the RPC URL from environment variables, empty for a simulated chain
func GetEnvRPCURL() (string, error) {
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		return "", nil
	}

	// Validate URL format
	if _, err := url.ParseRequestURI(rpcURL); err != nil {
		return "", fmt.Errorf("invalid RPC_URL value: %s, must be a valid URL", rpcURL)
	}
	return rpcURL, nil
}

// GetEnvFundKeeperKey returns the fund keeper private key from environment variables
func GetEnvFundKeeperKey() string {
	return strings.TrimSpace(os.Getenv("FUND_KEEPER_PRIVATE_KEY"))
}

// GetEnvWalletKeys returns the comma separated wallet private keys from environment variables
func GetEnvWalletKeys() ([]string, error) {
	raw := os.Getenv("WALLET_PRIVATE_KEYS")
	if raw == "" {
		return nil, nil
	}

	var keys []string
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid WALLET_PRIVATE_KEYS value: empty key in list")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// GetEnvNumWallets returns the number of simulated wallets from environment variables
func GetEnvNumWallets() (int, error) {
	numWallets := os.Getenv("NUM_WALLETS")
	if numWallets == "" {
		return DefaultNumWallets, nil
	}

	count, err := strconv.Atoi(numWallets)
	if err != nil {
		return 0, fmt.Errorf("invalid NUM_WALLETS value: %s, must be an integer", numWallets)
	}
	if count <= 0 {
		return 0, fmt.Errorf("NUM_WALLETS must be greater than 0")
	}
	return count, nil
}

// GetEnvPrefundWei returns the native prefund amount in wei from environment variables
func GetEnvPrefundWei() (*big.Int, error) {
	return getEnvBigInt("PREFUND_WEI", DefaultPrefundWei)
}

// GetEnvTokenSupply returns the QiLyt supply minted to the fund keeper from environment variables
func GetEnvTokenSupply() (*big.Int, error) {
	return getEnvBigInt("TOKEN_SUPPLY", DefaultTokenSupply)
}

func getEnvBigInt(name, fallback string) (*big.Int, error) {
	value := os.Getenv(name)
	if value == "" {
		value = fallback
	}

	parsed := new(big.Int)
	if _, ok := parsed.SetString(value, 10); !ok {
		return nil, fmt.Errorf("invalid %s value: %s, must be a valid integer string", name, value)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("%s must be greater than or equal to 0", name)
	}
	return parsed, nil
}

// GetEnvQiLytAddress returns the QiLyt token address from environment variables
func GetEnvQiLytAddress() (string, error) {
	address := os.Getenv("QI_LYT_ADDRESS")
	if address == "" {
		return "", nil
	}

	// Validate Ethereum address format
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid QI_LYT_ADDRESS value: %s, must be a valid Ethereum address", address)
	}
	return address, nil
}

// GetEnvTxTimeout returns the receipt wait timeout from environment variables
func GetEnvTxTimeout() (time.Duration, error) {
	timeout := os.Getenv("TX_TIMEOUT")
	if timeout == "" {
		return DefaultTxTimeout * time.Second, nil
	}

	// Validate duration format
	parsed, err := time.ParseDuration(timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid TX_TIMEOUT value: %s, must be a valid duration string", timeout)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("TX_TIMEOUT must be greater than or equal to 0")
	}
	return parsed, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return logger.InfoLevel, fmt.Errorf("invalid LOG_LEVEL value: %w", err)
	}
	return level, nil
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return DefaultLogColoring, nil
	}

	if coloring == "true" {
		return true, nil
	} else if coloring == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
}
