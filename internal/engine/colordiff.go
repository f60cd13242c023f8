package engine

import (
	"math"

	"thermo-inspector/internal/raster"
)

// DeltaEMap попиксельная разница CIEDE2000 между двумя Lab-изображениями одного размера.
func DeltaEMap(a, b *raster.Lab) *raster.Field {
	out := raster.NewField(a.Width, a.Height)
	for i := range out.Pix {
		out.Pix[i] = float32(CIEDE2000(
			float64(a.L[i]), float64(a.A[i]), float64(a.B[i]),
			float64(b.L[i]), float64(b.A[i]), float64(b.B[i]),
		))
	}
	return out
}

const pow25to7 = 6103515625.0 // 25^7

// CIEDE2000 цветовое различие с kL = kC = kH = 1.
func CIEDE2000(l1, a1, b1, l2, a2, b2 float64) float64 {
	c1 := math.Hypot(a1, b1)
	c2 := math.Hypot(a2, b2)
	cBar7 := math.Pow((c1+c2)/2, 7)
	g := 0.5 * (1 - math.Sqrt(cBar7/(cBar7+pow25to7)))

	a1p := (1 + g) * a1
	a2p := (1 + g) * a2
	c1p := math.Hypot(a1p, b1)
	c2p := math.Hypot(a2p, b2)
	h1p := hueAngle(b1, a1p)
	h2p := hueAngle(b2, a2p)

	dLp := l2 - l1
	dCp := c2p - c1p

	var dhp float64
	if c1p*c2p != 0 {
		dhp = h2p - h1p
		switch {
		case dhp > 180:
			dhp -= 360
		case dhp < -180:
			dhp += 360
		}
	}
	dHp := 2 * math.Sqrt(c1p*c2p) * math.Sin(rad(dhp/2))

	lBarP := (l1 + l2) / 2
	cBarP := (c1p + c2p) / 2

	var hBarP float64
	switch {
	case c1p*c2p == 0:
		hBarP = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hBarP = (h1p + h2p) / 2
	case h1p+h2p < 360:
		hBarP = (h1p + h2p + 360) / 2
	default:
		hBarP = (h1p + h2p - 360) / 2
	}

	t := 1 - 0.17*math.Cos(rad(hBarP-30)) +
		0.24*math.Cos(rad(2*hBarP)) +
		0.32*math.Cos(rad(3*hBarP+6)) -
		0.20*math.Cos(rad(4*hBarP-63))

	dTheta := 30 * math.Exp(-math.Pow((hBarP-275)/25, 2))
	cBarP7 := math.Pow(cBarP, 7)
	rc := 2 * math.Sqrt(cBarP7/(cBarP7+pow25to7))
	l50 := (lBarP - 50) * (lBarP - 50)
	sl := 1 + 0.015*l50/math.Sqrt(20+l50)
	sc := 1 + 0.045*cBarP
	sh := 1 + 0.015*cBarP*t
	rt := -math.Sin(rad(2*dTheta)) * rc

	tl := dLp / sl
	tc := dCp / sc
	th := dHp / sh
	return math.Sqrt(tl*tl + tc*tc + th*th + rt*tc*th)
}

func hueAngle(b, ap float64) float64 {
	if b == 0 && ap == 0 {
		return 0
	}
	h := math.Atan2(b, ap) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
