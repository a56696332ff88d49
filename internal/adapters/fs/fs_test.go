package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

func TestFileWriterAdapter(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	w, err := NewFileWriterAdapter(&config.RuntimeConfig{ProjectRoot: root})
	require.NoError(t, err)

	exists, err := w.FileExists(ctx, "out/tx.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, w.WriteFile(ctx, "out/tx.json", []byte(`{"ok":true}`)))

	exists, err = w.FileExists(ctx, "out/tx.json")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := w.ReadFile(ctx, filepath.Join(root, "out", "tx.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	require.NoError(t, w.EnsureDirectory(ctx, "nested/dir"))
	info, err := os.Stat(filepath.Join(root, "nested", "dir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPlanLoaderAdapter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	loader := NewPlanLoaderAdapter()

	tests := []struct {
		name    string
		content string
		wantErr string
		steps   int
	}{
		{
			name: "valid plan",
			content: `chains: [1, 10]
accounts:
  - address: "0xa11ce00000000000000000000000000000000a11"
    balance: "1000"
steps:
  - name: token
    operation: deployCreate2
    caller: "0xa11ce00000000000000000000000000000000a11"
    salt: "0x01"
    init_code: "0x600060005360016000f3"
  - name: initialized
    operation: deployCreate3AndInit
    caller: "0xa11ce00000000000000000000000000000000a11"
    value: "3"
    init_code: "0x600060005360016000f3"
    constructor_amount: "2"
    init_call_amount: "1"
  - name: raw
    caller: "0xa11ce00000000000000000000000000000000a11"
    calldata: "0xdeadbeef"
`,
			steps: 3,
		},
		{
			name: "calldata with operation",
			content: `steps:
  - name: bad
    operation: deployCreate
    caller: "0xa11ce00000000000000000000000000000000a11"
    calldata: "0xdeadbeef"
`,
			wantErr: "cannot be combined",
		},
		{
			name: "unknown operation",
			content: `steps:
  - name: bad
    operation: deployCreate4
    caller: "0x01"
`,
			wantErr: "unknown operation",
		},
		{
			name: "missing caller",
			content: `steps:
  - name: bad
    operation: deployCreate
`,
			wantErr: "caller is required",
		},
		{
			name:    "no steps",
			content: `chains: [1]`,
			wantErr: "no steps",
		},
		{
			name:    "malformed yaml",
			content: "steps: [",
			wantErr: "failed to parse plan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			plan, err := loader.LoadPlan(ctx, path)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, plan.Steps, tt.steps)
			assert.Equal(t, []uint64{1, 10}, plan.Chains)
			assert.Equal(t, "2", plan.Steps[1].ConstructorAmount)
		})
	}

	_, err := loader.LoadPlan(ctx, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
