package engine

import (
	"math"

	"thermo-inspector/internal/raster"
)

// hotBands полосы тона OpenCV (0..179) с порогами насыщенности и яркости:
// красный с обеих сторон круга, оранжевый, жёлтый.
var hotBands = []raster.Band{
	{Lo: [3]uint8{0, 90, 120}, Hi: [3]uint8{10, 255, 255}},
	{Lo: [3]uint8{170, 90, 120}, Hi: [3]uint8{179, 255, 255}},
	{Lo: [3]uint8{11, 80, 120}, Hi: [3]uint8{25, 255, 255}},
	{Lo: [3]uint8{26, 60, 120}, Hi: [3]uint8{35, 255, 255}},
}

const (
	absHotMinSat     = 80
	absHotMinValue   = 200.0
	absHotPercentile = 98.0
)

// CandidateMask горячие пиксели, у которых ΔE не ниже порога потенциальной аномалии.
func CandidateMask(hot *raster.Mask, deltaE *raster.Field, potential float64) *raster.Mask {
	return hot.And(deltaE.AtLeast(potential))
}

// AbsoluteHotMask очень яркие красно-оранжевые пиксели: V не ниже
// max(200, 98-го перцентиля V). Используется только для повышения метки.
func AbsoluteHotMask(hsv *raster.HSV) *raster.Mask {
	vMin := math.Max(absHotMinValue, percentileU8(hsv.V, absHotPercentile))
	return raster.MaskWhere(hsv.Width, hsv.Height, func(i int) bool {
		return isRedOrOrangeHue(float64(hsv.H[i])) &&
			hsv.S[i] >= absHotMinSat &&
			float64(hsv.V[i]) >= vMin
	})
}

// percentileU8 перцентиль с линейной интерполяцией между соседними рангами.
func percentileU8(vals []uint8, p float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	var hist [256]int
	for _, v := range vals {
		hist[v]++
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	vlo, vhi := valueAtRank(&hist, lo), valueAtRank(&hist, hi)
	return vlo + (vhi-vlo)*(rank-float64(lo))
}

func valueAtRank(hist *[256]int, k int) float64 {
	cum := 0
	for v, c := range hist {
		cum += c
		if cum > k {
			return float64(v)
		}
	}
	return 255
}

func isRedOrOrangeHue(h float64) bool {
	return h <= 10 || h >= 170 || (h >= 11 && h <= 25)
}

func isYellowHue(h float64) bool {
	return h >= 26 && h <= 35
}
