package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/raster"
)

const (
	// MinBlobArea компоненты меньше этой площади считаются шумом.
	MinBlobArea = 25

	minElongationPixels = 10
	eigenEps            = 1e-6
)

// blobsFromLabels собирает регионы по карте меток. Номера переназначаются
// в порядке первого пикселя компоненты при обходе строк, отброшенные мелкие
// компоненты номер сохраняют.
func blobsFromLabels(labels []int32, n, w int, deltaE *raster.Field, hsv *raster.HSV, minArea int) []entity.BlobRegion {
	pixels := make([][]int, n)
	order := make([]int32, 0, n)
	for i, l := range labels {
		if l <= 0 || int(l) >= n {
			continue
		}
		if pixels[l] == nil {
			order = append(order, l)
		}
		pixels[l] = append(pixels[l], i)
	}

	regions := make([]entity.BlobRegion, 0)
	for k, l := range order {
		if len(pixels[l]) < minArea {
			continue
		}
		regions = append(regions, regionFeatures(k+1, pixels[l], w, deltaE, hsv))
	}
	return regions
}

func regionFeatures(label int, pixels []int, w int, deltaE *raster.Field, hsv *raster.HSV) entity.BlobRegion {
	idx := make([]int, len(pixels))
	copy(idx, pixels)
	sort.Ints(idx)

	n := float64(len(idx))
	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := -1, -1
	var sumX, sumY, sumDE, peak, sumH, sumS, sumV float64
	for k, i := range idx {
		x, y := i%w, i/w
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
		sumX += float64(x)
		sumY += float64(y)

		d := float64(deltaE.Pix[i])
		sumDE += d
		if k == 0 || d > peak {
			peak = d
		}
		sumH += float64(hsv.H[i])
		sumS += float64(hsv.S[i])
		sumV += float64(hsv.V[i])
	}

	return entity.BlobRegion{
		Label:      label,
		BBox:       entity.BBox{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1},
		Area:       len(idx),
		Centroid:   [2]float64{sumX / n, sumY / n},
		MeanDeltaE: sumDE / n,
		PeakDeltaE: peak,
		MeanHSV:    [3]float64{sumH / n, sumS / n, sumV / n},
		Elongation: elongation(idx, w),
	}
}

// elongation отношение большего собственного числа ковариации координат к меньшему.
func elongation(idx []int, w int) float64 {
	if len(idx) < minElongationPixels {
		return 1.0
	}
	pts := mat.NewDense(len(idx), 2, nil)
	for r, i := range idx {
		pts.Set(r, 0, float64(i/w))
		pts.Set(r, 1, float64(i%w))
	}
	cov := mat.NewSymDense(2, nil)
	stat.CovarianceMatrix(cov, pts, nil)

	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return 1.0
	}
	vals := eig.Values(nil)
	lo, hi := math.Abs(vals[0]), math.Abs(vals[1])
	if lo > hi {
		lo, hi = hi, lo
	}
	return (hi + eigenEps) / (lo + eigenEps)
}
