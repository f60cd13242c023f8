package engine

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"thermo-inspector/internal/domain/entity"
)

var (
	colorFaulty    = color.NRGBA{R: 255, A: 255}
	colorPotential = color.NRGBA{R: 255, G: 165, A: 255}
	colorNormal    = color.NRGBA{G: 255, A: 255}
)

const boxThickness = 2

// LabelColor цвет рамки для метки региона.
func LabelColor(c entity.Classification) color.NRGBA {
	switch c {
	case entity.Faulty:
		return colorFaulty
	case entity.PotentiallyFaulty:
		return colorPotential
	}
	return colorNormal
}

// Caption подпись над рамкой: метка, подтип, пиковое ΔE и уверенность.
func Caption(b entity.BlobDetection) string {
	return fmt.Sprintf("%s:%s pdE=%.1f conf=%.2f", b.Classification, b.Subtype, b.PeakDeltaE, b.Confidence)
}

// RenderOverlay рисует рамки и подписи регионов поверх копии снимка.
func RenderOverlay(img *image.NRGBA, blobs []entity.BlobDetection) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)

	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	for _, b := range blobs {
		c := LabelColor(b.Classification)
		drawBox(out, b.BBox.Rect(), c)

		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.P(b.BBox.X, max(ascent, b.BBox.Y-5)),
		}
		d.DrawString(Caption(b))
	}
	return out
}

func drawBox(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	src := image.NewUniform(c)
	for t := 0; t < boxThickness; t++ {
		o := r.Inset(-t)
		edges := []image.Rectangle{
			image.Rect(o.Min.X, o.Min.Y, o.Max.X, o.Min.Y+1),
			image.Rect(o.Min.X, o.Max.Y-1, o.Max.X, o.Max.Y),
			image.Rect(o.Min.X, o.Min.Y, o.Min.X+1, o.Max.Y),
			image.Rect(o.Max.X-1, o.Min.Y, o.Max.X, o.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
		}
	}
}
