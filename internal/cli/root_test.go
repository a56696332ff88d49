package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

func TestShouldShowSetupHint(t *testing.T) {
	tests := []struct {
		name     string
		cmdName  string
		cfg      *config.RuntimeConfig
		expected bool
	}{
		{
			name:     "shown for check without project file",
			cmdName:  "check",
			cfg:      &config.RuntimeConfig{},
			expected: true,
		},
		{
			name:     "shown for networks without project file",
			cmdName:  "networks",
			cfg:      &config.RuntimeConfig{},
			expected: true,
		},
		{
			name:     "suppressed when xfactory.toml exists",
			cmdName:  "check",
			cfg:      &config.RuntimeConfig{ConfigSource: "/work/xfactory.toml"},
			expected: false,
		},
		{
			name:     "suppressed for offline commands",
			cmdName:  "create2",
			cfg:      &config.RuntimeConfig{},
			expected: false,
		},
		{
			name:     "suppressed when json flag is set",
			cmdName:  "check",
			cfg:      &config.RuntimeConfig{JSON: true},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldShowSetupHint(tt.cmdName, tt.cfg))
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"predict", "create"},
		{"predict", "create2"},
		{"predict", "create3"},
		{"predict", "next"},
		{"predict", "salt"},
		{"simulate"},
		{"deployments", "list"},
		{"deployments", "add"},
		{"check"},
		{"presign"},
		{"broadcast"},
		{"interface"},
		{"networks"},
		{"config", "set"},
		{"config", "remove"},
		{"version"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestVersionRunsWithoutProject(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "xfactory version dev")
}
