//go:build gocv
// +build gocv

package raster

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Kernel структурный элемент OpenCV размера Size×Size.
type Kernel struct {
	Shape gocv.MorphShape
	Size  int
}

// RectKernel прямоугольный элемент n×n.
func RectKernel(n int) Kernel { return Kernel{Shape: gocv.MorphRect, Size: n} }

// EllipseKernel эллиптический элемент n×n; при n=3 это крест.
func EllipseKernel(n int) Kernel { return Kernel{Shape: gocv.MorphEllipse, Size: n} }

func (k Kernel) mat() gocv.Mat {
	return gocv.GetStructuringElement(k.Shape, image.Point{X: k.Size, Y: k.Size})
}

// Mat плоскость как CV_8UC1, память не копируется.
func (g *Gray) Mat() (gocv.Mat, error) {
	if g.Width == 0 || g.Height == 0 {
		return gocv.NewMat(), ErrEmpty
	}
	return gocv.NewMatFromBytes(g.Height, g.Width, gocv.MatTypeCV8UC1, g.Pix)
}

// Mat маска как CV_8UC1 со значениями 0/255.
func (m *Mask) Mat() (gocv.Mat, error) {
	if m.Width == 0 || m.Height == 0 {
		return gocv.NewMat(), ErrEmpty
	}
	return gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, m.Bytes())
}

func grayFromMat(mat gocv.Mat) *Gray {
	return &Gray{Width: mat.Cols(), Height: mat.Rows(), Pix: mat.ToBytes()}
}

func maskFromMat(mat gocv.Mat) *Mask {
	buf := mat.ToBytes()
	return MaskWhere(mat.Cols(), mat.Rows(), func(i int) bool { return buf[i] != 0 })
}

// nrgbaMat CV_8UC4 с порядком каналов R, G, B, A.
func nrgbaMat(img *image.NRGBA) (gocv.Mat, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), ErrEmpty
	}
	buf := img.Pix
	if img.Stride != w*4 || img.Rect.Min != (image.Point{}) {
		buf = make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			copy(buf[y*w*4:(y+1)*w*4], img.Pix[off:off+w*4])
		}
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, buf[:w*h*4])
}

// GrayFromNRGBA яркость по BT.601, как cv.cvtColor(RGBA2GRAY).
func GrayFromNRGBA(img *image.NRGBA) (*Gray, error) {
	src, err := nrgbaMat(img)
	if err != nil {
		return nil, fmt.Errorf("gray: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CvtColor(src, &dst, gocv.ColorRGBAToGray)
	return grayFromMat(dst), nil
}

// HSVFromNRGBA переводит изображение в HSV, альфа отбрасывается.
func HSVFromNRGBA(img *image.NRGBA) (*HSV, error) {
	src, err := nrgbaMat(img)
	if err != nil {
		return nil, fmt.Errorf("hsv: %w", err)
	}
	defer src.Close()

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(src, &rgb, gocv.ColorRGBAToRGB)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(rgb, &hsv, gocv.ColorRGBToHSV)

	planes := gocv.Split(hsv)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()
	return &HSV{
		Width:  hsv.Cols(),
		Height: hsv.Rows(),
		H:      planes[0].ToBytes(),
		S:      planes[1].ToBytes(),
		V:      planes[2].ToBytes(),
	}, nil
}

func (p *HSV) mat() (gocv.Mat, error) {
	if p.Width == 0 || p.Height == 0 {
		return gocv.NewMat(), ErrEmpty
	}
	planes := make([]gocv.Mat, 0, 3)
	defer func() {
		for _, m := range planes {
			m.Close()
		}
	}()
	for _, ch := range [][]uint8{p.H, p.S, p.V} {
		m, err := gocv.NewMatFromBytes(p.Height, p.Width, gocv.MatTypeCV8UC1, ch)
		if err != nil {
			return gocv.NewMat(), err
		}
		planes = append(planes, m)
	}
	out := gocv.NewMat()
	gocv.Merge(planes, &out)
	return out, nil
}

// InRange маска пикселей, попавших хотя бы в один из диапазонов.
func (p *HSV) InRange(bands ...Band) (*Mask, error) {
	src, err := p.mat()
	if err != nil {
		return nil, fmt.Errorf("in range: %w", err)
	}
	defer src.Close()

	acc := gocv.Zeros(p.Height, p.Width, gocv.MatTypeCV8UC1)
	defer acc.Close()
	band := gocv.NewMat()
	defer band.Close()
	for _, b := range bands {
		gocv.InRangeWithScalar(src,
			gocv.NewScalar(float64(b.Lo[0]), float64(b.Lo[1]), float64(b.Lo[2]), 0),
			gocv.NewScalar(float64(b.Hi[0]), float64(b.Hi[1]), float64(b.Hi[2]), 0),
			&band)
		gocv.BitwiseOr(acc, band, &acc)
	}
	return maskFromMat(acc), nil
}

// Canny границы с апертурой Собеля 3.
func Canny(g *Gray, low, high float32) (*Mask, error) {
	src, err := g.Mat()
	if err != nil {
		return nil, fmt.Errorf("canny: %w", err)
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, low, high)
	return maskFromMat(edges), nil
}

// Dilate наращивание iterations раз; пиксели за границей не влияют на результат.
func (m *Mask) Dilate(k Kernel, iterations int) (*Mask, error) {
	return m.morph(k, func(src gocv.Mat, dst *gocv.Mat, kern gocv.Mat) {
		gocv.Dilate(src, dst, kern)
	}, iterations)
}

// Erode эрозия iterations раз; пиксели за границей считаются установленными.
func (m *Mask) Erode(k Kernel, iterations int) (*Mask, error) {
	return m.morph(k, func(src gocv.Mat, dst *gocv.Mat, kern gocv.Mat) {
		gocv.Erode(src, dst, kern)
	}, iterations)
}

// Open размыкание с iterations повторами каждой стадии.
func (m *Mask) Open(k Kernel, iterations int) (*Mask, error) {
	return m.morphEx(gocv.MorphOpen, k, iterations)
}

// Close замыкание с iterations повторами каждой стадии.
func (m *Mask) Close(k Kernel, iterations int) (*Mask, error) {
	return m.morphEx(gocv.MorphClose, k, iterations)
}

func (m *Mask) morph(k Kernel, op func(gocv.Mat, *gocv.Mat, gocv.Mat), iterations int) (*Mask, error) {
	if iterations <= 0 {
		return m.Clone(), nil
	}
	cur, err := m.Mat()
	if err != nil {
		return nil, fmt.Errorf("morphology: %w", err)
	}
	defer cur.Close()
	kern := k.mat()
	defer kern.Close()

	next := gocv.NewMat()
	defer next.Close()
	for i := 0; i < iterations; i++ {
		op(cur, &next, kern)
		next.CopyTo(&cur)
	}
	return maskFromMat(cur), nil
}

func (m *Mask) morphEx(op gocv.MorphType, k Kernel, iterations int) (*Mask, error) {
	src, err := m.Mat()
	if err != nil {
		return nil, fmt.Errorf("morphology: %w", err)
	}
	defer src.Close()
	kern := k.mat()
	defer kern.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.MorphologyExWithParams(src, &dst, op, kern, iterations, gocv.BorderConstant)
	return maskFromMat(dst), nil
}

// Components 8-связные компоненты: метка каждого пикселя (0 фон) и число меток с фоном.
// Порядок меток определяет OpenCV.
func (m *Mask) Components() ([]int32, int, error) {
	src, err := m.Mat()
	if err != nil {
		return nil, 0, fmt.Errorf("components: %w", err)
	}
	defer src.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	n := gocv.ConnectedComponents(src, &labels)

	out := make([]int32, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out[y*m.Width+x] = labels.GetIntAt(y, x)
		}
	}
	return out, n, nil
}

// Histogram гистограмма яркости из bins равных корзин по диапазону [0, 256).
func (g *Gray) Histogram(bins int) ([]float64, error) {
	src, err := g.Mat()
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	defer src.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	hist := gocv.NewMat()
	defer hist.Close()
	gocv.CalcHist([]gocv.Mat{src}, []int{0}, mask, &hist, []int{bins}, []float64{0, 256}, false)

	out := make([]float64, bins)
	for i := range out {
		out[i] = float64(hist.GetFloatAt(i, 0))
	}
	return out, nil
}

// WarpGray переносит src в кадр w×h. m отображает координаты результата
// в координаты src; вне src: 0.
func WarpGray(src *Gray, w, h int, m [3][3]float64) (*Gray, error) {
	in, err := src.Mat()
	if err != nil {
		return nil, fmt.Errorf("warp: %w", err)
	}
	defer in.Close()

	out, err := warp(in, w, h, m)
	if err != nil {
		return nil, err
	}
	defer out.Close()
	return grayFromMat(out), nil
}

// WarpNRGBA то же для цветного изображения, альфа результата всегда 255.
func WarpNRGBA(src *image.NRGBA, w, h int, m [3][3]float64) (*image.NRGBA, error) {
	in, err := nrgbaMat(src)
	if err != nil {
		return nil, fmt.Errorf("warp: %w", err)
	}
	defer in.Close()

	out, err := warp(in, w, h, m)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, out.ToBytes())
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img, nil
}

// warp аффинное преобразование, если последняя строка m равна (0, 0, 1), иначе перспективное.
func warp(src gocv.Mat, w, h int, m [3][3]float64) (gocv.Mat, error) {
	if w <= 0 || h <= 0 {
		return gocv.NewMat(), ErrEmpty
	}
	affine := m[2][0] == 0 && m[2][1] == 0 && m[2][2] == 1
	rows := 3
	if affine {
		rows = 2
	}
	tm := gocv.NewMatWithSize(rows, 3, gocv.MatTypeCV64F)
	defer tm.Close()
	for r := 0; r < rows; r++ {
		for c := 0; c < 3; c++ {
			tm.SetDoubleAt(r, c, m[r][c])
		}
	}

	dst := gocv.NewMat()
	flags := gocv.InterpolationLinear | gocv.WarpInverseMap
	size := image.Point{X: w, Y: h}
	if affine {
		gocv.WarpAffineWithParams(src, &dst, tm, size, flags, gocv.BorderConstant, color.RGBA{})
	} else {
		gocv.WarpPerspectiveWithParams(src, &dst, tm, size, flags, gocv.BorderConstant, color.RGBA{})
	}
	if dst.Empty() {
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("warp: empty result")
	}
	return dst, nil
}
