package engine

import (
	"math"

	"thermo-inspector/internal/domain/entity"
)

const (
	ssimSplit      = 0.70
	paletteMinCorr = 0.60
	paletteSoften  = 2.0
)

// Similarity метрики сходства, по которым выбираются пороги.
type Similarity struct {
	MeanSSIM    float64
	PaletteCorr float64
}

// DeriveThresholds адаптивные пороги: база по SSIM, затем масштаб от ползунка
// чувствительности, затем смягчение при расхождении палитр.
func DeriveThresholds(sim Similarity, sensitivity *float64) entity.ThresholdSet {
	high := sim.MeanSSIM >= ssimSplit

	ts := entity.ThresholdSet{BasePotential: 10.0, BaseFault: 14.0, Source: entity.SourceAdaptiveSSIM}
	if high {
		ts.BasePotential, ts.BaseFault = 8.0, 12.0
	}
	ts.Ratio = ts.BaseFault / ts.BasePotential
	ts.Potential, ts.Fault = ts.BasePotential, ts.BaseFault

	if sensitivity != nil && !math.IsNaN(*sensitivity) {
		raw := *sensitivity
		p := clamp(raw, 0, 100)
		scale := 1.2 - 0.4*(p/100)

		pot := ts.BasePotential * scale
		if high {
			pot = clamp(pot, 6.0, 11.0)
		} else {
			pot = clamp(pot, 8.0, 13.0)
		}
		ts.Potential = pot
		ts.Fault = pot * ts.Ratio

		// бесконечность не сериализуется в JSON, в отчёт идёт зажатое значение
		if math.IsInf(raw, 0) {
			raw = p
		}
		ts.SliderPercent = &raw
		ts.ScaleApplied = &scale
		ts.Source = entity.SourceSliderScaled
	}

	if sim.PaletteCorr < paletteMinCorr {
		ts.Potential = math.Max(6.0, ts.Potential-paletteSoften)
		ts.Fault = math.Max(10.0, ts.Fault-paletteSoften)
		ts.Source += entity.SuffixPaletteSoften
	}
	return ts
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
