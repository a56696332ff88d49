package app

import (
	"github.com/trebuchet-org/xfactory/internal/domain/config"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Selector usecase.InteractiveSelector

	// Use cases
	PredictAddress      *usecase.PredictAddress
	SimulateDeployment  *usecase.SimulateDeployment
	ListDeployments     *usecase.ListDeployments
	AddDeployment       *usecase.AddDeployment
	CheckDeployments    *usecase.CheckDeployments
	PresignDeployment   *usecase.PresignDeployment
	BroadcastDeployment *usecase.BroadcastDeployment
	ExportInterface     *usecase.ExportInterface
	ListNetworks        *usecase.ListNetworks
	ShowConfig          *usecase.ShowConfig
	SetConfig           *usecase.SetConfig
	RemoveConfig        *usecase.RemoveConfig
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	selector usecase.InteractiveSelector,
	predictAddress *usecase.PredictAddress,
	simulateDeployment *usecase.SimulateDeployment,
	listDeployments *usecase.ListDeployments,
	addDeployment *usecase.AddDeployment,
	checkDeployments *usecase.CheckDeployments,
	presignDeployment *usecase.PresignDeployment,
	broadcastDeployment *usecase.BroadcastDeployment,
	exportInterface *usecase.ExportInterface,
	listNetworks *usecase.ListNetworks,
	showConfig *usecase.ShowConfig,
	setConfig *usecase.SetConfig,
	removeConfig *usecase.RemoveConfig,
) (*App, error) {
	return &App{
		Config:              cfg,
		Selector:            selector,
		PredictAddress:      predictAddress,
		SimulateDeployment:  simulateDeployment,
		ListDeployments:     listDeployments,
		AddDeployment:       addDeployment,
		CheckDeployments:    checkDeployments,
		PresignDeployment:   presignDeployment,
		BroadcastDeployment: broadcastDeployment,
		ExportInterface:     exportInterface,
		ListNetworks:        listNetworks,
		ShowConfig:          showConfig,
		SetConfig:           setConfig,
		RemoveConfig:        removeConfig,
	}, nil
}
