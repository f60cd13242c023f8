//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/raster"
)

var errNoEdges = errors.New("no edges to correlate")

// Align совмещает moving с base. Неудача совмещения ошибкой не считается:
// возвращается entity.FailedAlignment().
func (a *GoCVAligner) Align(base, moving *image.Gray) (entity.Alignment, error) {
	bw, bh := base.Rect.Dx(), base.Rect.Dy()
	if bw != moving.Rect.Dx() || bh != moving.Rect.Dy() {
		return entity.Alignment{}, fmt.Errorf("align: size mismatch %dx%d vs %dx%d",
			bw, bh, moving.Rect.Dx(), moving.Rect.Dy())
	}

	baseMat, err := grayToMat(base)
	if err != nil {
		return entity.Alignment{}, err
	}
	defer baseMat.Close()

	movMat, err := grayToMat(moving)
	if err != nil {
		return entity.Alignment{}, err
	}
	defer movMat.Close()

	maskMat, err := AlignMask(bw, bh).Mat()
	if err != nil {
		return entity.Alignment{}, fmt.Errorf("align mask: %w", err)
	}
	defer maskMat.Close()

	al, err := a.alignECC(baseMat, movMat, maskMat)
	if err == nil {
		a.log.Debug().Float64("cc", al.Score).Msg("ecc converged")
		return al, nil
	}
	a.log.Debug().Err(err).Msg("ecc failed, falling back to keypoints")

	if al, ok := a.alignKeypoints(baseMat, movMat, bw, bh); ok {
		return al, nil
	}
	a.log.Warn().Msg("registration failed")
	return entity.FailedAlignment(), nil
}

// alignECC аффинный ECC по картам границ Canny.
func (a *GoCVAligner) alignECC(base, moving, mask gocv.Mat) (entity.Alignment, error) {
	baseEdges := gocv.NewMat()
	defer baseEdges.Close()
	gocv.Canny(base, &baseEdges, 50, 150)

	movEdges := gocv.NewMat()
	defer movEdges.Close()
	gocv.Canny(moving, &movEdges, 50, 150)

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAnd(baseEdges, mask, &masked)
	if gocv.CountNonZero(masked) == 0 || gocv.CountNonZero(movEdges) == 0 {
		return entity.Alignment{}, errNoEdges
	}

	warp := gocv.Eye(2, 3, gocv.MatTypeCV32F)
	defer warp.Close()
	cc, err := findTransformECC(baseEdges, movEdges, &warp, mask, a.ECCIterations, a.ECCEpsilon, 5)
	if err != nil {
		return entity.Alignment{}, err
	}
	if math.IsNaN(cc) || math.IsInf(cc, 0) || cc <= 0 {
		return entity.Alignment{}, fmt.Errorf("%w: correlation %v", ErrECC, cc)
	}

	var m [2][3]float64
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			v := float64(warp.GetFloatAt(r, c))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return entity.Alignment{}, fmt.Errorf("%w: non-finite warp", ErrECC)
			}
			m[r][c] = v
		}
	}
	return entity.NewAffineAlignment(m, cc), nil
}

// alignKeypoints ORB по всему кадру, kNN с тестом отношения и гомография RANSAC.
func (a *GoCVAligner) alignKeypoints(base, moving gocv.Mat, w, h int) (entity.Alignment, bool) {
	orb := gocv.NewORBWithParams(a.ORBFeatures, 1.2, 8, 31, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	defer orb.Close()

	noMask := gocv.NewMat()
	defer noMask.Close()
	baseKP, baseDesc := orb.DetectAndCompute(base, noMask)
	defer baseDesc.Close()
	movKP, movDesc := orb.DetectAndCompute(moving, noMask)
	defer movDesc.Close()
	if baseDesc.Empty() || movDesc.Empty() {
		return entity.Alignment{}, false
	}

	bf := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	defer bf.Close()

	good := make([]gocv.DMatch, 0)
	for _, pair := range bf.KnnMatch(baseDesc, movDesc, 2) {
		if len(pair) == 2 && pair[0].Distance < a.RatioTest*pair[1].Distance {
			good = append(good, pair[0])
		}
	}
	if len(good) < a.MinMatches {
		a.log.Debug().Int("matches", len(good)).Msg("not enough keypoint matches")
		return entity.Alignment{}, false
	}

	src := gocv.NewMatWithSize(len(good), 1, gocv.MatTypeCV64FC2)
	defer src.Close()
	dst := gocv.NewMatWithSize(len(good), 1, gocv.MatTypeCV64FC2)
	defer dst.Close()
	for i, g := range good {
		src.SetDoubleAt(i, 0, baseKP[g.QueryIdx].X)
		src.SetDoubleAt(i, 1, baseKP[g.QueryIdx].Y)
		dst.SetDoubleAt(i, 0, movKP[g.TrainIdx].X)
		dst.SetDoubleAt(i, 1, movKP[g.TrainIdx].Y)
	}

	inliers := gocv.NewMat()
	defer inliers.Close()
	h := gocv.FindHomography(src, &dst, gocv.HomograpyMethodRANSAC, a.RansacThreshold, &inliers, 2000, 0.995)
	defer h.Close()
	if h.Empty() {
		return entity.Alignment{}, false
	}

	var m entity.Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := h.GetDoubleAt(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return entity.Alignment{}, false
			}
			m[r][c] = v
		}
	}
	if !sane(m, w, h) {
		a.log.Debug().Int("matches", len(good)).Msg("degenerate homography")
		return entity.Alignment{}, false
	}
	a.log.Debug().Int("matches", len(good)).Msg("homography found")
	return entity.NewHomographyAlignment(m), true
}

// sane углы кадра после гомографии конечны и не уходят дальше одного кадра за границу.
func sane(m entity.Matrix, w, h int) bool {
	fw, fh := float64(w), float64(h)
	for _, p := range [][2]float64{{0, 0}, {fw, 0}, {0, fh}, {fw, fh}} {
		x, y := m.Apply(p[0], p[1])
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return false
		}
		if x < -fw || x > 2*fw || y < -fh || y > 2*fh {
			return false
		}
	}
	return true
}

// grayToMat копирует изображение в CV_8UC1 без отступов строк.
func grayToMat(g *image.Gray) (gocv.Mat, error) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("gray to mat: %w", raster.ErrEmpty)
	}
	tight := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		off := g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y)
		copy(tight.Pix[y*w:(y+1)*w], g.Pix[off:off+w])
	}
	m, err := gocv.ImageGrayToMatGray(tight)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("gray to mat: %w", err)
	}
	return m, nil
}
