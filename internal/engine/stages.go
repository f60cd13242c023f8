//go:build gocv
// +build gocv

package engine

import (
	"fmt"
	"image"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
	"thermo-inspector/internal/raster"
)

// Registration совмещённый снимок обслуживания в кадре эталона.
type Registration struct {
	Alignment entity.Alignment
	Gray      *raster.Gray
	Color     *image.NRGBA
}

// Register находит преобразование и одинаково применяет его к серому и цветному
// снимку. Матрица выравнивания служит обратным отображением для обоих.
func Register(al port.Aligner, base, movGray *raster.Gray, movColor *image.NRGBA) (*Registration, error) {
	a, err := al.Align(base.ToImage(), movGray.ToImage())
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}
	if !a.Success() {
		return &Registration{Alignment: a, Gray: movGray, Color: movColor}, nil
	}

	m := [3][3]float64(a.Matrix)
	gray, err := raster.WarpGray(movGray, base.Width, base.Height, m)
	if err != nil {
		return nil, fmt.Errorf("warp gray: %w", err)
	}
	color, err := raster.WarpNRGBA(movColor, base.Width, base.Height, m)
	if err != nil {
		return nil, fmt.Errorf("warp color: %w", err)
	}
	return &Registration{Alignment: a, Gray: gray, Color: color}, nil
}

// Thresholds считает сходство и выводит из него пороги ΔE.
func Thresholds(base, aligned *raster.Gray, sensitivity *float64) (entity.ThresholdSet, Similarity, error) {
	ssim, err := MeanSSIM(base, aligned)
	if err != nil {
		return entity.ThresholdSet{}, Similarity{}, err
	}
	ha, err := base.Histogram(paletteBins)
	if err != nil {
		return entity.ThresholdSet{}, Similarity{}, err
	}
	hb, err := aligned.Histogram(paletteBins)
	if err != nil {
		return entity.ThresholdSet{}, Similarity{}, err
	}
	sim := Similarity{MeanSSIM: ssim, PaletteCorr: PaletteCorrelation(ha, hb)}
	return DeriveThresholds(sim, sensitivity), sim, nil
}

// HotColorMask пиксели красного, оранжевого и жёлтого цвета.
func HotColorMask(hsv *raster.HSV) (*raster.Mask, error) {
	return hsv.InRange(hotBands...)
}

// CleanMask убирает одиночный шум размыканием и заполняет мелкие разрывы замыканием.
func CleanMask(m *raster.Mask) (*raster.Mask, error) {
	k := raster.EllipseKernel(3)
	opened, err := m.Open(k, 1)
	if err != nil {
		return nil, err
	}
	return opened.Close(k, 2)
}

// ExtractBlobs размечает 8-связные компоненты маски и считает их признаки.
func ExtractBlobs(mask *raster.Mask, deltaE *raster.Field, hsv *raster.HSV, minArea int) ([]entity.BlobRegion, error) {
	if mask.Width == 0 || mask.Height == 0 {
		return make([]entity.BlobRegion, 0), nil
	}
	labels, n, err := mask.Components()
	if err != nil {
		return nil, err
	}
	return blobsFromLabels(labels, n, mask.Width, deltaE, hsv, minArea), nil
}

// BuildTopology строит однопиксельный скелет по границам и горячим областям
// и находит концы и развилки.
func BuildTopology(gray *raster.Gray, hot *raster.Mask) (*Topology, error) {
	edges, err := raster.Canny(gray, 50, 150)
	if err != nil {
		return nil, err
	}
	if edges, err = edges.Dilate(raster.RectKernel(3), 1); err != nil {
		return nil, err
	}
	hotDil, err := hot.Dilate(raster.RectKernel(5), 1)
	if err != nil {
		return nil, err
	}
	skel := Thin(edges.Or(hotDil))
	band, err := skel.Dilate(raster.RectKernel(3), 1)
	if err != nil {
		return nil, err
	}
	endpoints, junctions := SkeletonNodes(skel)
	return &Topology{
		Skeleton: skel,
		WireBand: band,
		Joints:   append(endpoints, junctions...),
	}, nil
}

// Facts близость региона к узлу и покрытие провода горячей маской вокруг него.
func (t *Topology) Facts(r entity.BlobRegion, hot *raster.Mask) (WireFacts, error) {
	cov, err := WireHotCoverage(r.BBox, t.Skeleton, hot, coverageExpand)
	if err != nil {
		return WireFacts{}, err
	}
	return WireFacts{
		NearJoint: IsNearJoint(r.Centroid[0], r.Centroid[1], t.Joints, jointRadius),
		Coverage:  cov,
	}, nil
}

// WireHotCoverage считает покрытие скелета горячей маской в рамке,
// расширенной на expand пикселей и обрезанной по кадру.
func WireHotCoverage(box entity.BBox, skel, hot *raster.Mask, expand int) (Coverage, error) {
	roi := image.Rect(box.X-expand, box.Y-expand, box.X+box.Width+expand, box.Y+box.Height+expand)
	skelROI := skel.Crop(roi)
	hotROI := hot.Crop(roi)
	var c Coverage
	if skelROI.Width == 0 || skelROI.Height == 0 {
		return c, nil
	}
	k3 := raster.RectKernel(3)

	hotDil, err := hotROI.Dilate(k3, 1)
	if err != nil {
		return c, err
	}
	c.WireLen = skelROI.Count()
	c.HotLen = skelROI.And(hotDil).Count()
	if c.WireLen > 0 {
		c.Coverage = float64(c.HotLen) / float64(c.WireLen)
	}

	band, err := skelROI.Dilate(k3, 1)
	if err != nil {
		return c, err
	}
	total := band.Count()
	if total > 0 {
		c.CoolFraction = float64(band.AndNot(hotROI).Count()) / float64(total)
	}
	return c, nil
}
