package entity

// DetectionReport итог одного сравнения эталона и снимка обслуживания.
// Создаётся один раз на вызов и дальше не меняется.
type DetectionReport struct {
	TransformerID   string          `json:"transformer_id"`
	BaselinePath    string          `json:"baseline_path"`
	MaintenancePath string          `json:"maintenance_path"`
	WarpModel       TransformKind   `json:"warp_model"`
	WarpSuccess     bool            `json:"warp_success"`
	WarpScore       float64         `json:"warp_score"`
	MeanSSIM        float64         `json:"mean_ssim"`
	ImageLevelLabel Classification  `json:"image_level_label"`
	Blobs           []BlobDetection `json:"blobs"`
	ThresholdSet
}

// CountBy считает регионы с заданной меткой.
func (r *DetectionReport) CountBy(c Classification) int {
	n := 0
	for _, b := range r.Blobs {
		if b.Classification == c {
			n++
		}
	}
	return n
}

// HasAnomalies true, если хотя бы один регион не Normal.
func (r *DetectionReport) HasAnomalies() bool {
	return r.ImageLevelLabel != Normal
}

// AiDescription текстовое описание отчёта от ИИ.
type AiDescription struct {
	Text string
}
