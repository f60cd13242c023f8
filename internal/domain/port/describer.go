package port

import (
	"context"

	"thermo-inspector/internal/domain/entity"
)

// ReportDescriber интерфейс описателя отчёта
type ReportDescriber interface {
	// Describe генерирует текстовое описание найденных аномалий
	Describe(ctx context.Context, report *entity.DetectionReport, overlayPNG []byte) (*entity.AiDescription, error)
}
