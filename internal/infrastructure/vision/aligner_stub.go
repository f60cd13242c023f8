//go:build !gocv
// +build !gocv

package vision

import (
	"image"

	"thermo-inspector/internal/domain/entity"
)

// Align возвращает ошибку, если сборка без тега gocv.
func (a *GoCVAligner) Align(base, moving *image.Gray) (entity.Alignment, error) {
	_ = base
	_ = moving
	return entity.Alignment{}, ErrAlignerUnavailable
}
