package engine

import (
	"image"

	"thermo-inspector/internal/raster"
)

const (
	jointRadius    = 8
	coverageExpand = 10
)

// Topology скелет проводников и его узлы.
type Topology struct {
	Skeleton *raster.Mask
	WireBand *raster.Mask // скелет, наращённый 3×3
	Joints   []image.Point
}

// Thin топологическое утоньшение Чжана–Суня. Связность сохраняется,
// пиксели за границей кадра считаются фоном.
func Thin(m *raster.Mask) *raster.Mask {
	w, h := m.Width, m.Height
	px := make([]bool, len(m.Pix))
	copy(px, m.Pix)
	at := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return px[y*w+x]
	}

	var del []int
	for changed := true; changed; {
		changed = false
		for step := 0; step < 2; step++ {
			del = del[:0]
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					if !px[y*w+x] {
						continue
					}
					// P2..P9 по часовой стрелке начиная с севера
					n := [8]bool{
						at(x, y-1), at(x+1, y-1), at(x+1, y), at(x+1, y+1),
						at(x, y+1), at(x-1, y+1), at(x-1, y), at(x-1, y-1),
					}
					b := 0
					a := 0
					for i := 0; i < 8; i++ {
						if n[i] {
							b++
						}
						if !n[i] && n[(i+1)%8] {
							a++
						}
					}
					if b < 2 || b > 6 || a != 1 {
						continue
					}
					p2, p4, p6, p8 := n[0], n[2], n[4], n[6]
					if step == 0 {
						if (p2 && p4 && p6) || (p4 && p6 && p8) {
							continue
						}
					} else {
						if (p2 && p4 && p8) || (p2 && p6 && p8) {
							continue
						}
					}
					del = append(del, y*w+x)
				}
			}
			for _, i := range del {
				px[i] = false
			}
			if len(del) > 0 {
				changed = true
			}
		}
	}
	return &raster.Mask{Width: w, Height: h, Pix: px}
}

// SkeletonNodes концы (степень 1) и развилки (степень ≥ 3) скелета в порядке обхода строк.
func SkeletonNodes(skel *raster.Mask) (endpoints, junctions []image.Point) {
	w, h := skel.Width, skel.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !skel.Pix[y*w+x] {
				continue
			}
			deg := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < w && ny < h && skel.Pix[ny*w+nx] {
						deg++
					}
				}
			}
			switch {
			case deg == 1:
				endpoints = append(endpoints, image.Pt(x, y))
			case deg >= 3:
				junctions = append(junctions, image.Pt(x, y))
			}
		}
	}
	return endpoints, junctions
}

// IsNearJoint true, если центр региона не дальше r от какого-либо узла.
func IsNearJoint(cx, cy float64, joints []image.Point, r float64) bool {
	for _, j := range joints {
		dx, dy := cx-float64(j.X), cy-float64(j.Y)
		if dx*dx+dy*dy <= r*r {
			return true
		}
	}
	return false
}

// WireFacts положение региона относительно проводников.
type WireFacts struct {
	NearJoint bool
	Coverage  Coverage
}

// Coverage доля провода под горячей маской вокруг региона.
type Coverage struct {
	Coverage     float64 // горячие пиксели скелета / все пиксели скелета
	HotLen       int
	WireLen      int
	CoolFraction float64 // холодные пиксели полосы / вся полоса
}
