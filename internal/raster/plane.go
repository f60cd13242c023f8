// Package raster содержит поканальные 2D-плоскости и поэлементные операции над ними.
// Соглашения повторяют OpenCV: HSV в 8-битной шкале (H 0..179), маски вместо 0/255.
// Фильтры, морфология, преобразования цвета и геометрии вызывают OpenCV
// и собираются только с тегом gocv.
package raster

import (
	"errors"
	"image"
)

// ErrEmpty плоскость без пикселей, OpenCV такие не принимает.
var ErrEmpty = errors.New("raster: empty plane")

// Gray 8-битная яркость
type Gray struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGray создаёт чёрную плоскость заданного размера.
func NewGray(w, h int) *Gray {
	return &Gray{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At значение пикселя (x, y).
func (g *Gray) At(x, y int) uint8 { return g.Pix[y*g.Width+x] }

// Set записывает значение пикселя (x, y).
func (g *Gray) Set(x, y int, v uint8) { g.Pix[y*g.Width+x] = v }

// Bounds прямоугольник плоскости.
func (g *Gray) Bounds() image.Rectangle { return image.Rect(0, 0, g.Width, g.Height) }

// Clone глубокая копия.
func (g *Gray) Clone() *Gray {
	out := NewGray(g.Width, g.Height)
	copy(out.Pix, g.Pix)
	return out
}

// ToImage переводит плоскость в *image.Gray.
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(g.Bounds())
	copy(img.Pix, g.Pix)
	return img
}

// Mask бинарная маска
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask создаёт пустую маску.
func NewMask(w, h int) *Mask {
	return &Mask{Width: w, Height: h, Pix: make([]bool, w*h)}
}

// MaskWhere строит маску по предикату от линейного индекса пикселя.
func MaskWhere(w, h int, pred func(i int) bool) *Mask {
	m := NewMask(w, h)
	for i := range m.Pix {
		m.Pix[i] = pred(i)
	}
	return m
}

// At значение маски в (x, y).
func (m *Mask) At(x, y int) bool { return m.Pix[y*m.Width+x] }

// Set записывает значение маски в (x, y).
func (m *Mask) Set(x, y int, v bool) { m.Pix[y*m.Width+x] = v }

// Bounds прямоугольник маски.
func (m *Mask) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// Clone глубокая копия.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// Count число установленных пикселей.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// CountIn число установленных пикселей внутри прямоугольника r.
func (m *Mask) CountIn(r image.Rectangle) int {
	r = r.Intersect(m.Bounds())
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			if row[x] {
				n++
			}
		}
	}
	return n
}

// Crop копирует часть маски, r обрезается по границам.
func (m *Mask) Crop(r image.Rectangle) *Mask {
	r = r.Intersect(m.Bounds())
	out := NewMask(r.Dx(), r.Dy())
	for y := 0; y < r.Dy(); y++ {
		src := m.Pix[(r.Min.Y+y)*m.Width+r.Min.X : (r.Min.Y+y)*m.Width+r.Max.X]
		copy(out.Pix[y*out.Width:(y+1)*out.Width], src)
	}
	return out
}

// And поэлементное И.
func (m *Mask) And(o *Mask) *Mask {
	return MaskWhere(m.Width, m.Height, func(i int) bool { return m.Pix[i] && o.Pix[i] })
}

// Or поэлементное ИЛИ.
func (m *Mask) Or(o *Mask) *Mask {
	return MaskWhere(m.Width, m.Height, func(i int) bool { return m.Pix[i] || o.Pix[i] })
}

// AndNot пиксели m, не входящие в o.
func (m *Mask) AndNot(o *Mask) *Mask {
	return MaskWhere(m.Width, m.Height, func(i int) bool { return m.Pix[i] && !o.Pix[i] })
}

// Bytes маска в виде 0/255, как её ждёт OpenCV.
func (m *Mask) Bytes() []byte {
	out := make([]byte, len(m.Pix))
	for i, v := range m.Pix {
		if v {
			out[i] = 255
		}
	}
	return out
}

// Field вещественная плоскость (карта ΔE)
type Field struct {
	Width  int
	Height int
	Pix    []float32
}

// NewField создаёт нулевую плоскость.
func NewField(w, h int) *Field {
	return &Field{Width: w, Height: h, Pix: make([]float32, w*h)}
}

// At значение в (x, y).
func (f *Field) At(x, y int) float32 { return f.Pix[y*f.Width+x] }

// AtLeast маска пикселей со значением не меньше t.
func (f *Field) AtLeast(t float64) *Mask {
	return MaskWhere(f.Width, f.Height, func(i int) bool { return float64(f.Pix[i]) >= t })
}
