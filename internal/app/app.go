package app

import (
	"github.com/trebuchet-org/esdeploy/internal/domain/config"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Orchestrator shared by deploy, attach, wire and mint within one run
	Orchestrator *usecase.Orchestrator

	// Use cases
	RunPipeline   *usecase.RunPipeline
	ListAddresses *usecase.ListAddresses
	ShowConfig    *usecase.ShowConfig
	SetConfig     *usecase.SetConfig
	RemoveConfig  *usecase.RemoveConfig

	// Artifacts is used for completion and suggestions
	Artifacts usecase.ArtifactRepository
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	orchestrator *usecase.Orchestrator,
	runPipeline *usecase.RunPipeline,
	listAddresses *usecase.ListAddresses,
	showConfig *usecase.ShowConfig,
	setConfig *usecase.SetConfig,
	removeConfig *usecase.RemoveConfig,
	artifacts usecase.ArtifactRepository,
) (*App, error) {
	return &App{
		Config:        cfg,
		Orchestrator:  orchestrator,
		RunPipeline:   runPipeline,
		ListAddresses: listAddresses,
		ShowConfig:    showConfig,
		SetConfig:     setConfig,
		RemoveConfig:  removeConfig,
		Artifacts:     artifacts,
	}, nil
}
