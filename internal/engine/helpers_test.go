package engine

import (
	"image"
	"image/color"

	"github.com/rs/zerolog"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/raster"
)

type identityAligner struct{}

func (identityAligner) Align(_, _ *image.Gray) (entity.Alignment, error) {
	return entity.NewAffineAlignment([2][3]float64{{1, 0, 0}, {0, 1, 0}}, 1), nil
}

type failingAligner struct{}

func (failingAligner) Align(_, _ *image.Gray) (entity.Alignment, error) {
	return entity.FailedAlignment(), nil
}

type brokenAligner struct{ err error }

func (a brokenAligner) Align(_, _ *image.Gray) (entity.Alignment, error) {
	return entity.Alignment{}, a.err
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func paint(img *image.NRGBA, r image.Rectangle, c color.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

var (
	gray128 = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	hotRed  = color.NRGBA{R: 255, A: 255}
)

// hotPatchPair эталон без нагрева и снимок с красным пятном 20×20.
func hotPatchPair() (*image.NRGBA, *image.NRGBA) {
	base := solidImage(100, 100, gray128)
	return base, paint(base, image.Rect(40, 40, 60, 60), hotRed)
}

func newTestDetector(opts Options) *Detector {
	return NewDetector(identityAligner{}, zerolog.Nop(), opts)
}

func newHSV(w, h int) *raster.HSV {
	return &raster.HSV{Width: w, Height: h, H: make([]uint8, w*h), S: make([]uint8, w*h), V: make([]uint8, w*h)}
}

func fillMask(m *raster.Mask, r image.Rectangle) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
}
