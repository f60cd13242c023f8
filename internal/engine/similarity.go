package engine

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"thermo-inspector/internal/raster"
)

const (
	ssimWindow  = 7
	paletteBins = 64
)

// ErrTooSmall снимок меньше окна SSIM.
var ErrTooSmall = errors.New("image is smaller than the similarity window")

// MeanSSIM средний индекс структурного сходства с параметрами scikit-image по умолчанию:
// равномерное окно 7×7, выборочная ковариация, K1=0.01, K2=0.03, диапазон 255.
// Среднее берётся по внутренней области, где окно целиком лежит в кадре.
func MeanSSIM(a, b *raster.Gray) (float64, error) {
	w, h := a.Width, a.Height
	if w < ssimWindow || h < ssimWindow {
		return 0, ErrTooSmall
	}

	const (
		c1 = (0.01 * 255) * (0.01 * 255)
		c2 = (0.03 * 255) * (0.03 * 255)
		np = ssimWindow * ssimWindow
	)
	covNorm := float64(np) / float64(np-1)

	sx := newIntegral(w, h, func(i int) float64 { return float64(a.Pix[i]) })
	sy := newIntegral(w, h, func(i int) float64 { return float64(b.Pix[i]) })
	sxx := newIntegral(w, h, func(i int) float64 { v := float64(a.Pix[i]); return v * v })
	syy := newIntegral(w, h, func(i int) float64 { v := float64(b.Pix[i]); return v * v })
	sxy := newIntegral(w, h, func(i int) float64 { return float64(a.Pix[i]) * float64(b.Pix[i]) })

	pad := ssimWindow / 2
	var total float64
	count := 0
	for y := pad; y < h-pad; y++ {
		for x := pad; x < w-pad; x++ {
			x0, y0, x1, y1 := x-pad, y-pad, x+pad+1, y+pad+1
			ux := sx.sum(x0, y0, x1, y1) / np
			uy := sy.sum(x0, y0, x1, y1) / np
			uxx := sxx.sum(x0, y0, x1, y1) / np
			uyy := syy.sum(x0, y0, x1, y1) / np
			uxy := sxy.sum(x0, y0, x1, y1) / np

			vx := covNorm * (uxx - ux*ux)
			vy := covNorm * (uyy - uy*uy)
			vxy := covNorm * (uxy - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}
	return total / float64(count), nil
}

type integral struct {
	sum func(x0, y0, x1, y1 int) float64
}

func newIntegral(w, h int, val func(i int) float64) integral {
	stride := w + 1
	s := make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += val(y*w + x)
			s[(y+1)*stride+x+1] = s[y*stride+x+1] + row
		}
	}
	return integral{
		sum: func(x0, y0, x1, y1 int) float64 {
			return s[y1*stride+x1] - s[y0*stride+x1] - s[y1*stride+x0] + s[y0*stride+x0]
		},
	}
}

// PaletteCorrelation коэффициент корреляции Пирсона между L2-нормированными
// гистограммами яркости. Для постоянных гистограмм: NaN.
func PaletteCorrelation(ha, hb []float64) float64 {
	a := append([]float64(nil), ha...)
	b := append([]float64(nil), hb...)
	normalizeL2(a)
	normalizeL2(b)
	return stat.Correlation(a, b, nil)
}

func normalizeL2(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 || math.IsNaN(n) {
		return
	}
	floats.Scale(1/n, v)
}
