package raster

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// ToNRGBA приводит произвольное изображение к *image.NRGBA с началом в (0, 0).
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// HSV плоскости тона, насыщенности и яркости в 8-битной шкале OpenCV.
type HSV struct {
	Width  int
	Height int
	H      []uint8 // 0..179
	S      []uint8
	V      []uint8
}

// Band диапазон HSV, обе границы включительно, как у cv.inRange.
type Band struct {
	Lo [3]uint8
	Hi [3]uint8
}

// Lab плоскости CIE L*a*b* (D65), L в диапазоне 0..100.
type Lab struct {
	Width  int
	Height int
	L      []float32
	A      []float32
	B      []float32
}

// LabFromNRGBA переводит sRGB-изображение в L*a*b*.
func LabFromNRGBA(img *image.NRGBA) *Lab {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := &Lab{
		Width:  w,
		Height: h,
		L:      make([]float32, w*h),
		A:      make([]float32, w*h),
		B:      make([]float32, w*h),
	}
	cache := make(map[uint32][3]float32)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]
			key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			lab, ok := cache[key]
			if !ok {
				c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
				l, a, bb := c.Lab()
				lab = [3]float32{float32(l * 100), float32(a * 100), float32(bb * 100)}
				cache[key] = lab
			}
			i := y*w + x
			out.L[i], out.A[i], out.B[i] = lab[0], lab[1], lab[2]
		}
	}
	return out
}
