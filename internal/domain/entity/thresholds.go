package entity

import (
	"math"
	"strconv"
	"strings"
)

// Источники порогов. Поправки дописываются к тегу, а не заменяют его.
const (
	SourceAdaptiveSSIM  = "adaptive_ssim"
	SourceSliderScaled  = "slider_scaled"
	SuffixPaletteSoften = "+palette_soften"
)

// ThresholdSet пороги ΔE, которыми размечались регионы.
type ThresholdSet struct {
	Potential     float64  `json:"t_pot"`
	Fault         float64  `json:"t_fault"`
	BasePotential float64  `json:"base_t_pot"`
	BaseFault     float64  `json:"base_t_fault"`
	SliderPercent *float64 `json:"slider_percent"`
	ScaleApplied  *float64 `json:"scale_applied"`
	Source        string   `json:"threshold_source"`
	Ratio         float64  `json:"ratio"` // BaseFault / BasePotential, не меняется после создания
}

// ParseSensitivity разбирает процент чувствительности. Пустая строка,
// мусор и NaN дают nil: пороги остаются адаптивными, ошибки нет.
func ParseSensitivity(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}
