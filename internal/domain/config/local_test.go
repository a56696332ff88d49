package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeConfigKey(t *testing.T) {
	tests := []struct {
		in      string
		want    ConfigKey
		wantErr bool
	}{
		{"network", ConfigKeyNetwork, false},
		{"NET", ConfigKeyNetwork, false},
		{" timeout ", ConfigKeyTimeout, false},
		{"namespace", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, err := NormalizeConfigKey(tt.in)
			if tt.wantErr {
				assert.ErrorContains(t, err, "Available keys: network (net), timeout")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestLocalConfigSet(t *testing.T) {
	var cfg LocalConfig

	require.NoError(t, cfg.Set(ConfigKeyNetwork, "sepolia"))
	require.NoError(t, cfg.Set(ConfigKeyTimeout, "90s"))
	assert.Equal(t, "sepolia", cfg.Get(ConfigKeyNetwork))
	assert.Equal(t, "90s", cfg.Get(ConfigKeyTimeout))

	assert.Error(t, cfg.Set(ConfigKeyTimeout, "soon"))
	assert.Equal(t, "90s", cfg.Timeout)

	require.NoError(t, cfg.Set(ConfigKeyNetwork, ""))
	assert.Empty(t, cfg.Network)
}
