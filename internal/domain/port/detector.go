package port

import (
	"context"
	"image"

	"thermo-inspector/internal/domain/entity"
)

// AnomalyDetector интерфейс детектора аномалий по паре снимков
type AnomalyDetector interface {
	// Detect сравнивает эталон со снимком обслуживания и возвращает отчёт
	Detect(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error)

	// DetectBatch сравнивает несколько снимков с одним эталоном, порядок результатов как у запросов
	DetectBatch(ctx context.Context, baseline image.Image, reqs []entity.DetectionRequest, workers int) []entity.BatchItem
}

// Aligner интерфейс регистрации снимка обслуживания на кадр эталона
type Aligner interface {
	// Align возвращает преобразование; неудачная регистрация не является ошибкой
	Align(base, moving *image.Gray) (entity.Alignment, error)
}
