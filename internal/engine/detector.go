package engine

import (
	"context"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
	"thermo-inspector/internal/logger"
)

// Detector конвейер сравнения эталона и снимка обслуживания.
// Состояния между вызовами нет, один Detector можно вызывать параллельно.
type Detector struct {
	aligner port.Aligner
	log     zerolog.Logger
	opts    Options
}

// NewDetector создаёт детектор с заданным регистратором.
func NewDetector(aligner port.Aligner, log zerolog.Logger, opts Options) *Detector {
	return &Detector{
		aligner: aligner,
		log:     logger.Component(log, "detector"),
		opts:    opts.normalized(),
	}
}

// DetectBatch сравнивает много снимков обслуживания с одним эталоном.
// Вызовы независимы, порядок результатов совпадает с порядком запросов.
func (d *Detector) DetectBatch(ctx context.Context, baseline image.Image, reqs []entity.DetectionRequest, workers int) []entity.BatchItem {
	if workers <= 0 {
		workers = 1
	}
	out := make([]entity.BatchItem, len(reqs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range reqs {
		req := reqs[i]
		if req.Baseline == nil {
			req.Baseline = baseline
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()
			out[i].Result, out[i].Err = d.Detect(ctx, req)
		}(i)
	}
	wg.Wait()
	return out
}

var _ port.AnomalyDetector = (*Detector)(nil)
