package config

import "fmt"

// chainNames maps chain IDs to their names
var chainNames = map[int64]string{
	1:        "ETHEREUM",
	43114:    "AVALANCHE",
	43113:    "FUJI",
	31337:    "HARDHAT",
	1337:     "SIMULATED",
	11155111: "SEPOLIA",
}

// GetChainName returns the name of the chain for a given chain ID
func GetChainName(chainID int64) string {
	name, exists := chainNames[chainID]
	if !exists {
		return ""
	}
	return name
}

// DescribeChain returns a human readable label such as "SIMULATED (1337)"
func DescribeChain(chainID int64) string {
	name := GetChainName(chainID)
	if name == "" {
		return fmt.Sprintf("chain %d", chainID)
	}
	return fmt.Sprintf("%s (%d)", name, chainID)
}
