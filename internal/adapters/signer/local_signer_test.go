package signer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// well-known development key
const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var devAddress = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestNewLocalSigner(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"with prefix", devKey, false},
		{"without prefix", devKey[2:], false},
		{"empty", "", true},
		{"not hex", "0xzz", true},
		{"too short", "0x1234", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewLocalSigner(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, devAddress, s.Address())
		})
	}
}

func TestSignTxWithoutReplayProtection(t *testing.T) {
	s, err := NewFactory().FromPrivateKey(devKey)
	require.NoError(t, err)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(100_000_000_000),
		Gas:      3_000_000,
		Data:     common.FromHex("0x600060005360016000f3"),
	})

	signed, err := s.SignTx(context.Background(), tx)
	require.NoError(t, err)
	assert.False(t, signed.Protected())

	sender, err := types.Sender(types.HomesteadSigner{}, signed)
	require.NoError(t, err)
	assert.Equal(t, devAddress, sender)
}

func TestSignTxRejectsTypedTransactions(t *testing.T) {
	s, err := NewLocalSigner(devKey)
	require.NoError(t, err)

	tx := types.NewTx(&types.DynamicFeeTx{ChainID: big.NewInt(1), Gas: 21_000})
	_, err = s.SignTx(context.Background(), tx)
	assert.Error(t, err)
}
