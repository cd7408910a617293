package config

import (
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/speedrun-hq/lyt-testing/pkg/logger"
)

// Config holds the configuration for building a test environment
type Config struct {
	// RPCURL selects a live node; empty means an in-memory simulated chain
	RPCURL        string
	FundKeeperKey string
	WalletKeys    []string
	NumWallets    int
	PrefundWei    *big.Int
	TokenSupply   *big.Int
	QiLytAddress  string
	TxTimeout     time.Duration
	LoggerConfig  LoggerConfig
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// Simulated reports whether the configuration targets the simulated backend
func (c *Config) Simulated() bool {
	return c.RPCURL == ""
}

// NewLogger builds the logger described by the configuration
func (c *Config) NewLogger() logger.Logger {
	return logger.NewStdLogger(c.LoggerConfig.Coloring, c.LoggerConfig.Level)
}

// DefaultConfig returns the configuration for a simulated environment
// without reading the process environment. Only errors are logged.
func DefaultConfig() *Config {
	prefund, _ := new(big.Int).SetString(DefaultPrefundWei, 10)
	supply, _ := new(big.Int).SetString(DefaultTokenSupply, 10)

	return &Config{
		NumWallets:  DefaultNumWallets,
		PrefundWei:  prefund,
		TokenSupply: supply,
		TxTimeout:   DefaultTxTimeout * time.Second,
		LoggerConfig: LoggerConfig{
			Level:    logger.ErrorLevel,
			Coloring: DefaultLogColoring,
		},
	}
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	rpcURL, err := GetEnvRPCURL()
	if err != nil {
		return nil, err
	}

	walletKeys, err := GetEnvWalletKeys()
	if err != nil {
		return nil, err
	}

	numWallets, err := GetEnvNumWallets()
	if err != nil {
		return nil, err
	}

	prefund, err := GetEnvPrefundWei()
	if err != nil {
		return nil, err
	}

	supply, err := GetEnvTokenSupply()
	if err != nil {
		return nil, err
	}

	qiLytAddress, err := GetEnvQiLytAddress()
	if err != nil {
		return nil, err
	}

	txTimeout, err := GetEnvTxTimeout()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCURL:        rpcURL,
		FundKeeperKey: GetEnvFundKeeperKey(),
		WalletKeys:    walletKeys,
		NumWallets:    numWallets,
		PrefundWei:    prefund,
		TokenSupply:   supply,
		QiLytAddress:  qiLytAddress,
		TxTimeout:     txTimeout,
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	// Validate required environment variables
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Simulated() {
		if cfg.NumWallets <= 0 {
			return fmt.Errorf("NUM_WALLETS must be greater than 0")
		}
		return nil
	}

	// A live chain cannot mint fresh accounts or tokens
	if cfg.FundKeeperKey == "" {
		return fmt.Errorf("FUND_KEEPER_PRIVATE_KEY environment variable is required when RPC_URL is set")
	}
	if len(cfg.WalletKeys) == 0 {
		return fmt.Errorf("WALLET_PRIVATE_KEYS environment variable is required when RPC_URL is set")
	}
	if cfg.QiLytAddress == "" || !common.IsHexAddress(cfg.QiLytAddress) {
		return fmt.Errorf("QI_LYT_ADDRESS environment variable is required when RPC_URL is set")
	}
	return nil
}
