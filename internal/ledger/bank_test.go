package ledger

import (
	"os"
	"testing"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/poold/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Initialize("error")
	os.Exit(m.Run())
}

func TestBankTransfer(t *testing.T) {
	bank := NewBank()
	bank.Mint("alice", sdktypes.NewCoin("uatom", sdkmath.NewInt(100)))

	require.NoError(t, bank.Transfer("alice", "bob", sdktypes.NewCoin("uatom", sdkmath.NewInt(40))))

	assert.Equal(t, sdkmath.NewInt(60), bank.BalanceOf("alice", "uatom"))
	assert.Equal(t, sdkmath.NewInt(40), bank.BalanceOf("bob", "uatom"))
}

func TestBankRejectsOverdraft(t *testing.T) {
	bank := NewBank()
	bank.Mint("alice", sdktypes.NewCoin("uatom", sdkmath.NewInt(10)))

	err := bank.Transfer("alice", "bob", sdktypes.NewCoin("uatom", sdkmath.NewInt(11)))
	require.Error(t, err)

	// Nothing moved.
	assert.Equal(t, sdkmath.NewInt(10), bank.BalanceOf("alice", "uatom"))
	assert.True(t, bank.BalanceOf("bob", "uatom").IsZero())

	// Unknown accounts hold nothing.
	err = bank.TransferFrom("carol", "bob", sdktypes.NewCoin("uatom", sdkmath.NewInt(1)))
	require.Error(t, err)
}

func TestBankDenomsAreIsolated(t *testing.T) {
	bank := NewBank()
	bank.Mint("alice", sdktypes.NewCoin("uatom", sdkmath.NewInt(100)))
	bank.Mint("alice", sdktypes.NewCoin("ueden", sdkmath.NewInt(5)))

	err := bank.Transfer("alice", "bob", sdktypes.NewCoin("ueden", sdkmath.NewInt(6)))
	require.Error(t, err)

	require.NoError(t, bank.Transfer("alice", "bob", sdktypes.NewCoin("ueden", sdkmath.NewInt(5))))
	assert.Equal(t, sdkmath.NewInt(100), bank.BalanceOf("alice", "uatom"))
	assert.True(t, bank.BalanceOf("alice", "ueden").IsZero())
}

func TestBankMintAccumulates(t *testing.T) {
	bank := NewBank()
	bank.Mint("alice", sdktypes.NewCoin("uatom", sdkmath.NewInt(10)))
	bank.Mint("alice", sdktypes.NewCoin("uatom", sdkmath.NewInt(15)))

	assert.Equal(t, sdkmath.NewInt(25), bank.BalanceOf("alice", "uatom"))
}
