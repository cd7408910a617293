package testutil

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedrun-hq/lyt-testing/pkg/blockchain"
)

// Constants for testing
const (
	DefaultTestTimeout = 30 * time.Second
)

// DefaultPrefund is the native balance given to every simulated account (10 ETH)
var DefaultPrefund = new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether))

// SetupSimulation creates a simulated chain with the requested number of
// prefunded signers. The backend is closed when the test finishes.
func SetupSimulation(t *testing.T, numSigners int) (*blockchain.Chain, []*bind.TransactOpts) {
	t.Helper()

	signers := make([]*bind.TransactOpts, 0, numSigners)
	genesis := types.GenesisAlloc{}
	for range numSigners {
		auth, err := blockchain.GenerateSigner(blockchain.SimulatedChainID)
		require.NoError(t, err, "Failed to create transactor")

		genesis[auth.From] = types.Account{Balance: new(big.Int).Set(DefaultPrefund)}
		signers = append(signers, auth)
	}

	backend := simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50_000_000))
	chain := blockchain.NewSimulatedChain(backend)
	t.Cleanup(func() {
		_ = chain.Close()
	})

	return chain, signers
}

// GenerateAddress creates a random address for testing
func GenerateAddress() common.Address {
	privateKey, _ := crypto.GenerateKey()
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// AssertBigIntEqual compares two big.Int values for equality in tests
func AssertBigIntEqual(t *testing.T, expected, actual *big.Int, msgAndArgs ...interface{}) {
	t.Helper()

	if expected == nil && actual == nil {
		return
	}

	if (expected == nil && actual != nil) || (expected != nil && actual == nil) {
		assert.Fail(t, "Values not equal", msgAndArgs...)
		return
	}

	assert.Equal(t, expected.String(), actual.String(), msgAndArgs...)
}

// SetupTestWithTimeout creates a context bounded by DefaultTestTimeout
func SetupTestWithTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	t.Cleanup(cancel)
	return ctx
}
