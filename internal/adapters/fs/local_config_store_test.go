package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	internalconfig "github.com/trebuchet-org/xfactory/internal/config"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

func TestLocalConfigStoreAdapter(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalConfigStoreAdapter(&config.RuntimeConfig{ProjectRoot: root})

	assert.False(t, store.Exists())
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, &config.LocalConfig{}, loaded)

	require.NoError(t, store.Save(ctx, &config.LocalConfig{Network: "sepolia", Timeout: "30s"}))
	assert.True(t, store.Exists())
	assert.Equal(t, filepath.Join(root, ".xfactory", "config.local.json"), store.GetPath())

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", loaded.Network)

	t.Run("viper reads the saved defaults", func(t *testing.T) {
		v := internalconfig.SetupViper(root, nil)
		assert.Equal(t, "sepolia", v.GetString("network"))
		assert.Equal(t, 30*time.Second, v.GetDuration("timeout"))
	})

	t.Run("corrupt file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(store.GetPath(), []byte("{"), 0644))
		_, err := store.Load(ctx)
		assert.ErrorContains(t, err, "failed to parse config file")
	})
}
