// Package vision совмещает снимок обслуживания с эталоном средствами OpenCV.
// Без тега сборки gocv доступна только заглушка.
package vision

import (
	"errors"

	"github.com/rs/zerolog"

	"thermo-inspector/internal/domain/port"
	"thermo-inspector/internal/logger"
	"thermo-inspector/internal/raster"
)

// ErrAlignerUnavailable сборка без OpenCV.
var ErrAlignerUnavailable = errors.New("gocv build tag is not enabled")

const (
	// Доли кадра, закрытые для поиска: справа шкала температур, сверху подписи камеры.
	maskRightFraction = 0.12
	maskTopFraction   = 0.15
)

// Params настройки регистрации.
type Params struct {
	ECCIterations   int
	ECCEpsilon      float64
	ORBFeatures     int
	RatioTest       float64
	MinMatches      int
	RansacThreshold float64
}

// DefaultParams значения по умолчанию.
func DefaultParams() Params {
	return Params{
		ECCIterations:   300,
		ECCEpsilon:      1e-6,
		ORBFeatures:     5000,
		RatioTest:       0.75,
		MinMatches:      8,
		RansacThreshold: 3.0,
	}
}

// GoCVAligner ECC по границам, при неудаче ORB + RANSAC.
type GoCVAligner struct {
	Params
	log zerolog.Logger
}

// NewGoCVAligner создаёт регистратор с параметрами по умолчанию.
func NewGoCVAligner(log zerolog.Logger) *GoCVAligner {
	return &GoCVAligner{
		Params: DefaultParams(),
		log:    logger.Component(log, "aligner"),
	}
}

// AlignMask область кадра, по которой ищется совмещение.
func AlignMask(w, h int) *raster.Mask {
	right := w - int(float64(w)*maskRightFraction)
	top := int(float64(h) * maskTopFraction)
	return raster.MaskWhere(w, h, func(i int) bool {
		x, y := i%w, i/w
		return x < right && y >= top
	})
}

var _ port.Aligner = (*GoCVAligner)(nil)
