//go:build gocv
// +build gocv

package engine

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/raster"
)

// Detect прогоняет все стадии по очереди. Отмена контекста проверяется между стадиями.
func (d *Detector) Detect(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	if req.Baseline == nil {
		return nil, fmt.Errorf("baseline image: %w", entity.ErrNotFound)
	}
	if req.Maintenance == nil {
		return nil, fmt.Errorf("maintenance image: %w", entity.ErrNotFound)
	}
	log := d.log.With().Str("asset", req.AssetID).Logger()

	// Загрузка: снимок обслуживания приводится к размеру эталона.
	base := raster.ToNRGBA(req.Baseline)
	maint := raster.ToNRGBA(req.Maintenance)
	w, h := base.Rect.Dx(), base.Rect.Dy()
	if maint.Rect.Dx() != w || maint.Rect.Dy() != h {
		maint = imaging.Resize(maint, w, h, imaging.Linear)
	}
	baseGray, err := raster.GrayFromNRGBA(base)
	if err != nil {
		return nil, fmt.Errorf("baseline image: %w", err)
	}
	maintGray, err := raster.GrayFromNRGBA(maint)
	if err != nil {
		return nil, fmt.Errorf("maintenance image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reg, err := Register(d.aligner, baseGray, maintGray, maint)
	if err != nil {
		return nil, err
	}
	if reg.Alignment.Success() {
		log.Debug().Str("warp", string(reg.Alignment.Kind())).Float64("score", reg.Alignment.QualityScore()).Msg("aligned")
	} else {
		log.Warn().Msg("registration failed, analysing unaligned image")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	thresholds, sim, err := Thresholds(baseGray, reg.Gray, req.Sensitivity)
	if err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	log.Debug().
		Float64("ssim", sim.MeanSSIM).
		Float64("palette_corr", sim.PaletteCorr).
		Float64("t_pot", thresholds.Potential).
		Float64("t_fault", thresholds.Fault).
		Str("source", thresholds.Source).
		Msg("thresholds derived")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deltaE := DeltaEMap(raster.LabFromNRGBA(base), raster.LabFromNRGBA(reg.Color))
	hsv, err := raster.HSVFromNRGBA(reg.Color)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	hot, err := HotColorMask(hsv)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	candidates, err := CleanMask(CandidateMask(hot, deltaE, thresholds.Potential))
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	absHot := AbsoluteHotMask(hsv)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var topo *Topology
	if !d.opts.SkipTopology {
		topo, err = BuildTopology(reg.Gray, candidates)
		if err != nil {
			return nil, fmt.Errorf("topology: %w", err)
		}
		log.Debug().Int("joints", len(topo.Joints)).Int("skeleton_px", topo.Skeleton.Count()).Msg("topology built")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	regions, err := ExtractBlobs(candidates, deltaE, hsv, d.opts.MinBlobArea)
	if err != nil {
		return nil, fmt.Errorf("blobs: %w", err)
	}
	blobs := make([]entity.BlobDetection, 0, len(regions))
	for _, r := range regions {
		in := ClassifyInput{
			Region:             r,
			FaultThreshold:     thresholds.Fault,
			PotentialThreshold: thresholds.Potential,
			AbsoluteHot:        absHot,
		}
		if topo != nil {
			facts, err := topo.Facts(r, candidates)
			if err != nil {
				return nil, fmt.Errorf("topology: %w", err)
			}
			in.Wire = &facts
		}
		v := Classify(in)
		blobs = append(blobs, entity.BlobDetection{
			BlobRegion:     r,
			Classification: v.Classification,
			Subtype:        v.Subtype,
			Confidence:     v.Confidence,
			Severity:       v.Severity,
		})
	}

	report := &entity.DetectionReport{
		TransformerID:   req.AssetID,
		BaselinePath:    req.BaselinePath,
		MaintenancePath: req.MaintenancePath,
		WarpModel:       reg.Alignment.Kind(),
		WarpSuccess:     reg.Alignment.Success(),
		WarpScore:       reg.Alignment.QualityScore(),
		MeanSSIM:        sim.MeanSSIM,
		ImageLevelLabel: Summarize(blobs),
		Blobs:           blobs,
		ThresholdSet:    thresholds,
	}
	log.Info().
		Str("label", string(report.ImageLevelLabel)).
		Int("blobs", len(blobs)).
		Bool("anomalies", report.HasAnomalies()).
		Msg("detection finished")

	return &entity.DetectionResult{
		Report:  report,
		Overlay: RenderOverlay(reg.Color, blobs),
	}, nil
}
