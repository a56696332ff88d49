package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/domain"
)

var canonicalFactory = common.HexToAddress("0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed")

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--json", "--non-interactive"))
	err := root.Execute()
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	initCode := common.FromHex("0x600060005360016000f3")
	salt := common.HexToHash("0x01")

	t.Run("create2", func(t *testing.T) {
		out, err := runRoot(t, "predict", "create2", salt.Hex(), "--init-code", "0x600060005360016000f3")
		require.NoError(t, err)

		var result struct {
			Address  common.Address `json:"address"`
			Deployer common.Address `json:"deployer"`
			ChainID  uint64         `json:"chainId"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, canonicalFactory, result.Deployer)
		assert.Equal(t, uint64(1), result.ChainID)
		assert.Equal(t, domain.DeriveSaltBased(canonicalFactory, salt, domain.CodeHash(initCode)), result.Address)
	})

	t.Run("create3 on another chain", func(t *testing.T) {
		out, err := runRoot(t, "predict", "create3", salt.Hex(), "--chain", "10")
		require.NoError(t, err)

		var result struct {
			Address common.Address `json:"address"`
			Relay   common.Address `json:"relay"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, domain.DeriveRelayIndirected(canonicalFactory, salt), result.Address)
		assert.Equal(t, domain.DeriveRelay(canonicalFactory, salt), result.Relay)
	})

	t.Run("create2 requires init code", func(t *testing.T) {
		_, err := runRoot(t, "predict", "create2", salt.Hex())
		assert.ErrorContains(t, err, "--init-code")
	})

	t.Run("short salt is rejected", func(t *testing.T) {
		_, err := runRoot(t, "predict", "create3", "0x01")
		assert.ErrorContains(t, err, "salt must be 32 bytes")
	})

	t.Run("nonce out of range", func(t *testing.T) {
		_, err := runRoot(t, "predict", "create", "18446744073709551615")
		assert.ErrorIs(t, err, domain.InvalidNonceValue)
	})
}

func TestParseSalt(t *testing.T) {
	salt, err := parseSalt("0x0000000000000000000000000000000000000000010000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, domain.ProtectionOn, domain.DecodeSalt(salt).Protection)

	_, err = parseSalt("not hex")
	assert.Error(t, err)
}
