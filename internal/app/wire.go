//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/esdeploy/internal/adapters"
	"github.com/trebuchet-org/esdeploy/internal/config"
	"github.com/trebuchet-org/esdeploy/internal/logging"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewOrchestrator,
		usecase.NewRunPipeline,
		usecase.NewListAddresses,
		usecase.NewShowConfig,
		usecase.NewSetConfig,
		usecase.NewRemoveConfig,

		// App
		NewApp,
	)
	return nil, nil
}
