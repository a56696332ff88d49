//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/xfactory/internal/adapters"
	"github.com/trebuchet-org/xfactory/internal/config"
	"github.com/trebuchet-org/xfactory/internal/logging"
	"github.com/trebuchet-org/xfactory/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewPredictAddress,
		usecase.NewSimulateDeployment,
		usecase.NewListDeployments,
		usecase.NewAddDeployment,
		usecase.NewCheckDeployments,
		usecase.NewPresignDeployment,
		usecase.NewBroadcastDeployment,
		usecase.NewExportInterface,
		usecase.NewListNetworks,
		usecase.NewShowConfig,
		usecase.NewSetConfig,
		usecase.NewRemoveConfig,

		// App
		NewApp,
	)
	return nil, nil
}
