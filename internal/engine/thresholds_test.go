package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"thermo-inspector/internal/domain/entity"
)

func ptr(v float64) *float64 { return &v }

func TestDeriveThresholds_AdaptiveBase(t *testing.T) {
	high := DeriveThresholds(Similarity{MeanSSIM: 0.9, PaletteCorr: 0.99}, nil)
	require.Equal(t, 8.0, high.Potential)
	require.Equal(t, 12.0, high.Fault)
	require.Equal(t, 1.5, high.Ratio)
	require.Equal(t, entity.SourceAdaptiveSSIM, high.Source)
	require.Nil(t, high.SliderPercent)
	require.Nil(t, high.ScaleApplied)

	low := DeriveThresholds(Similarity{MeanSSIM: 0.5, PaletteCorr: 0.99}, nil)
	require.Equal(t, 10.0, low.Potential)
	require.Equal(t, 14.0, low.Fault)
	require.InDelta(t, 1.4, low.Ratio, 1e-12)

	edge := DeriveThresholds(Similarity{MeanSSIM: 0.70, PaletteCorr: 0.99}, nil)
	require.Equal(t, 8.0, edge.BasePotential)
}

func TestDeriveThresholds_Slider(t *testing.T) {
	tests := []struct {
		name      string
		ssim      float64
		slider    float64
		wantPot   float64
		wantScale float64
	}{
		{"high ssim, slider 0", 0.9, 0, 9.6, 1.2},
		{"high ssim, slider 50", 0.9, 50, 8.0, 1.0},
		{"high ssim, slider 100", 0.9, 100, 6.4, 0.8},
		{"high ssim, slider clamps above", 0.9, 150, 6.4, 0.8},
		{"high ssim, slider clamps below", 0.9, -20, 9.6, 1.2},
		{"low ssim, slider 100 hits floor", 0.4, 100, 8.0, 0.8},
		{"low ssim, slider 0", 0.4, 0, 12.0, 1.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := DeriveThresholds(Similarity{MeanSSIM: tt.ssim, PaletteCorr: 1}, ptr(tt.slider))
			require.InDelta(t, tt.wantPot, ts.Potential, 1e-9)
			require.InDelta(t, tt.wantScale, *ts.ScaleApplied, 1e-9)
			require.InDelta(t, ts.Ratio, ts.Fault/ts.Potential, 1e-9)
			require.Equal(t, entity.SourceSliderScaled, ts.Source)
			require.Equal(t, tt.slider, *ts.SliderPercent)
		})
	}
}

func TestDeriveThresholds_SliderMonotonic(t *testing.T) {
	for _, ssim := range []float64{0.3, 0.95} {
		prev := math.Inf(1)
		for p := 0.0; p <= 100; p += 2.5 {
			ts := DeriveThresholds(Similarity{MeanSSIM: ssim, PaletteCorr: 1}, ptr(p))
			require.LessOrEqual(t, ts.Potential, prev)
			prev = ts.Potential
		}
	}
}

func TestDeriveThresholds_PaletteSoften(t *testing.T) {
	ts := DeriveThresholds(Similarity{MeanSSIM: 0.4, PaletteCorr: 0.3}, nil)
	require.Equal(t, 8.0, ts.Potential)
	require.Equal(t, 12.0, ts.Fault)
	require.Equal(t, 10.0, ts.BasePotential)
	require.Equal(t, "adaptive_ssim+palette_soften", ts.Source)

	floored := DeriveThresholds(Similarity{MeanSSIM: 0.9, PaletteCorr: 0.3}, ptr(100))
	require.Equal(t, 6.0, floored.Potential)
	require.Equal(t, 10.0, floored.Fault)
	require.Equal(t, "slider_scaled+palette_soften", floored.Source)

	again := DeriveThresholds(Similarity{MeanSSIM: 0.9, PaletteCorr: 0.3}, ptr(100))
	require.Equal(t, floored, again)
}

func TestDeriveThresholds_UndefinedCorrelationDoesNotSoften(t *testing.T) {
	ts := DeriveThresholds(Similarity{MeanSSIM: 0.9, PaletteCorr: math.NaN()}, nil)
	require.Equal(t, entity.SourceAdaptiveSSIM, ts.Source)
}

func TestDeriveThresholds_NonFiniteSlider(t *testing.T) {
	nan := DeriveThresholds(Similarity{MeanSSIM: 0.9, PaletteCorr: 1}, ptr(math.NaN()))
	require.Equal(t, entity.SourceAdaptiveSSIM, nan.Source)
	require.Nil(t, nan.SliderPercent)

	inf := DeriveThresholds(Similarity{MeanSSIM: 0.9, PaletteCorr: 1}, ptr(math.Inf(1)))
	require.Equal(t, 100.0, *inf.SliderPercent)
	require.InDelta(t, 6.4, inf.Potential, 1e-9)
}
