package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/domain/models"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

func TestListNetworks(t *testing.T) {
	cfg := &config.RuntimeConfig{
		Networks: map[string]*config.Network{
			"sepolia": {Name: "sepolia", ChainID: 11155111, RPCURL: "http://sepolia.invalid"},
			"mainnet": {Name: "mainnet", ChainID: 1, RPCURL: "http://mainnet.invalid"},
		},
	}
	repo := new(MockDeploymentRepository)
	mainnet := &models.FactoryDeployment{Name: "Ethereum", ChainID: 1, Address: canonicalFactory}
	repo.On("ListDeployments", mock.Anything).Return([]*models.FactoryDeployment{mainnet}, nil)

	result, err := usecase.NewListNetworks(cfg, repo).Run(context.Background(), usecase.ListNetworksParams{})
	require.NoError(t, err)
	require.Len(t, result.Networks, 2)

	assert.Equal(t, "mainnet", result.Networks[0].Name)
	assert.Equal(t, mainnet, result.Networks[0].Registered)
	assert.Equal(t, "sepolia", result.Networks[1].Name)
	assert.Nil(t, result.Networks[1].Registered)
}
