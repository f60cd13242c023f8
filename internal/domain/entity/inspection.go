package entity

import "image"

// DetectionRequest одна пара снимков для сравнения.
type DetectionRequest struct {
	AssetID         string
	BaselinePath    string // только для отчёта
	MaintenancePath string // только для отчёта
	Baseline        image.Image
	Maintenance     image.Image
	Sensitivity     *float64 // 0..100, nil: адаптивные пороги
}

// DetectionResult отчёт и картинка с разметкой регионов.
type DetectionResult struct {
	Report  *DetectionReport
	Overlay *image.NRGBA
}

// BatchItem результат одного снимка пакета.
type BatchItem struct {
	Result *DetectionResult
	Err    error
}
