package deployments_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/adapters/repository/deployments"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
)

func TestFileRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("save and retrieve deployment", func(t *testing.T) {
		repo, err := deployments.NewFileRepositoryAt(t.TempDir())
		require.NoError(t, err)

		err = repo.SaveDeployment(ctx, &models.FactoryDeployment{
			Name:    "Ethereum",
			ChainID: 1,
			URL:     "https://etherscan.io/address/0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed",
			Address: "0xba5ed099633d3b313e4d5f7bdc1305d3c28ba5ed",
		})
		require.NoError(t, err)

		dep, err := repo.GetDeployment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Ethereum", dep.Name)
		// addresses are stored checksummed
		assert.Equal(t, "0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed", dep.Address)
		assert.False(t, dep.AddedAt.IsZero())
	})

	t.Run("entries are append-only per chain", func(t *testing.T) {
		repo, err := deployments.NewFileRepositoryAt(t.TempDir())
		require.NoError(t, err)

		dep := &models.FactoryDeployment{Name: "Optimism", ChainID: 10, Address: "0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed"}
		require.NoError(t, repo.SaveDeployment(ctx, dep))

		err = repo.SaveDeployment(ctx, &models.FactoryDeployment{Name: "OP", ChainID: 10, Address: dep.Address})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)

		list, err := repo.ListDeployments(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("missing chain", func(t *testing.T) {
		repo, err := deployments.NewFileRepositoryAt(t.TempDir())
		require.NoError(t, err)

		_, err = repo.GetDeployment(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid entries are rejected", func(t *testing.T) {
		repo, err := deployments.NewFileRepositoryAt(t.TempDir())
		require.NoError(t, err)

		err = repo.SaveDeployment(ctx, &models.FactoryDeployment{Name: "Bad", ChainID: 5, Address: "0x1234"})
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)

		err = repo.SaveDeployment(ctx, &models.FactoryDeployment{ChainID: 5, Address: "0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed"})
		assert.Error(t, err)
	})

	t.Run("persists across instances in order", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := deployments.NewFileRepositoryAt(dir)
		require.NoError(t, err)

		for _, dep := range []*models.FactoryDeployment{
			{Name: "Base", ChainID: 8453, Address: "0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed"},
			{Name: "Ethereum", ChainID: 1, Address: "0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed"},
		} {
			require.NoError(t, repo.SaveDeployment(ctx, dep))
		}

		reopened, err := deployments.NewFileRepositoryAt(dir)
		require.NoError(t, err)
		list, err := reopened.ListDeployments(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, uint64(8453), list[0].ChainID)
		assert.Equal(t, uint64(1), list[1].ChainID)

		_, err = os.Stat(filepath.Join(dir, deployments.DeploymentsFile+".tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("duplicate chains in file fail to load", func(t *testing.T) {
		dir := t.TempDir()
		content := `[{"name":"a","chainId":1,"url":"","address":"0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed"},
{"name":"b","chainId":1,"url":"","address":"0xba5Ed099633D3B313e4D5F7bdc1305d3c28ba5Ed"}]`
		require.NoError(t, os.WriteFile(filepath.Join(dir, deployments.DeploymentsFile), []byte(content), 0644))

		_, err := deployments.NewFileRepositoryAt(dir)
		assert.Error(t, err)
	})
}
