//go:build !gocv
// +build !gocv

package engine

import (
	"context"

	"thermo-inspector/internal/domain/entity"
)

// Detect возвращает ErrUnavailable, если сборка без тега gocv.
func (d *Detector) Detect(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	_ = ctx
	_ = req
	return nil, ErrUnavailable
}
