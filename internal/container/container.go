package container

import (
	"github.com/rs/zerolog"

	"thermo-inspector/config"
	app "thermo-inspector/internal/application"
	"thermo-inspector/internal/domain/port"
	"thermo-inspector/internal/engine"
	"thermo-inspector/internal/infrastructure/describer"
	"thermo-inspector/internal/infrastructure/storage"
	"thermo-inspector/internal/infrastructure/vision"
)

type Container struct {
	Detector          *engine.Detector
	Describer         port.ReportDescriber
	UserService       *app.UserService
	InspectionService *app.InspectionService
}

// New собирает зависимости приложения по конфигурации.
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	aligner := vision.NewGoCVAligner(log)
	detector := engine.NewDetector(aligner, log, engine.Options{SkipTopology: cfg.SkipTopology})

	var desc port.ReportDescriber = describer.NewTextDescriber()
	if cfg.OllamaURL != "" {
		ollama, err := describer.NewOllamaDescriber(cfg.OllamaURL, cfg.OllamaModel, log)
		if err != nil {
			return nil, err
		}
		desc = ollama
	}

	userService := app.NewUserService(storage.NewMemoryUserRepository())
	inspectionService := app.NewInspectionService(userService, detector, desc, storage.NewMemoryBaselineStore(), log)
	inspectionService.DefaultSensitivity = cfg.DefaultSensitivity
	inspectionService.Workers = cfg.BatchWorkers

	return &Container{
		Detector:          detector,
		Describer:         desc,
		UserService:       userService,
		InspectionService: inspectionService,
	}, nil
}
