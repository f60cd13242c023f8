package engine

import (
	"math"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/raster"
)

const (
	fullCoverage    = 0.60
	pointCoverage   = 0.25
	restCool        = 0.60
	elongatedRatio  = 3.0
	absHotJointV    = 200.0
	absHotPointFrac = 0.20
	absHotWireFrac  = 0.40
)

// ClassifyInput всё, что нужно правилам для одного региона.
type ClassifyInput struct {
	Region             entity.BlobRegion
	FaultThreshold     float64
	PotentialThreshold float64
	Wire               *WireFacts   // nil: только цветовое правило
	AbsoluteHot        *raster.Mask // nil: без повышения по абсолютному нагреву
}

// Verdict решение классификатора и промежуточные признаки для объяснения.
type Verdict struct {
	Classification entity.Classification
	Subtype        entity.Subtype
	Confidence     float64
	Severity       float64
	NearJoint      bool
	Coverage       Coverage
}

// Classify правило: цветовая полоса × топология × абсолютный нагрев.
func Classify(in ClassifyInput) Verdict {
	r := in.Region
	hue, meanV := r.MeanHSV[0], r.MeanHSV[2]
	peak, mean := r.PeakDeltaE, r.MeanDeltaE

	redOrange := isRedOrOrangeHue(hue)
	yellow := isYellowHue(hue)

	faulty := redOrange && peak >= in.FaultThreshold
	potential := (yellow && peak >= in.PotentialThreshold) ||
		(r.Elongation >= elongatedRatio && mean >= in.PotentialThreshold)

	var v Verdict
	if in.Wire != nil {
		v.NearJoint = in.Wire.NearJoint
		v.Coverage = in.Wire.Coverage
	}
	cov, cool := v.Coverage.Coverage, v.Coverage.CoolFraction
	pointLike := cov < pointCoverage && cool >= restCool

	byBand := func() entity.Classification {
		switch {
		case faulty:
			return entity.Faulty
		case potential:
			return entity.PotentiallyFaulty
		}
		return entity.Normal
	}

	switch {
	case v.NearJoint:
		v.Subtype = entity.SubtypeLooseJoint
		v.Classification = byBand()
	case cov >= fullCoverage:
		v.Subtype = entity.SubtypeFullWireOverload
		v.Classification = entity.Normal
		if faulty || potential {
			v.Classification = entity.PotentiallyFaulty
		}
	case pointLike:
		v.Subtype = entity.SubtypePointOverload
		v.Classification = byBand()
	default:
		v.Subtype = entity.SubtypeNone
		if faulty || potential {
			v.Subtype = entity.SubtypePointOverload
		}
		v.Classification = byBand()
	}

	if v.Classification == entity.Normal && in.AbsoluteHot != nil {
		box := r.BBox
		absFrac := float64(in.AbsoluteHot.CountIn(box.Rect())) / float64(max(1, box.Width*box.Height))
		switch {
		case v.NearJoint && (meanV >= absHotJointV || absFrac >= absHotPointFrac):
			v.Classification, v.Subtype = entity.Faulty, entity.SubtypeLooseJoint
		case pointLike && absFrac >= absHotPointFrac:
			v.Classification, v.Subtype = entity.Faulty, entity.SubtypePointOverload
		case cov >= fullCoverage && absFrac >= absHotWireFrac:
			v.Classification, v.Subtype = entity.PotentiallyFaulty, entity.SubtypeFullWireOverload
		}
	}

	conf := 0.5 + 0.5*math.Tanh((peak-in.PotentialThreshold)/8.0)
	switch {
	case redOrange:
		conf += 0.15
	case yellow:
		conf += 0.05
	}
	if v.Subtype == entity.SubtypeFullWireOverload && cov >= fullCoverage {
		conf += 0.07
	}
	if v.Subtype == entity.SubtypePointOverload && pointLike {
		conf += 0.07
	}
	if v.Subtype == entity.SubtypeLooseJoint && v.NearJoint {
		conf += 0.05
	}
	v.Confidence = bounded(conf, 0, 1)
	v.Severity = bounded(0.6*peak+0.4*mean+0.005*float64(r.Area), 0, 100)
	return v
}

// bounded зажимает значение в [lo, hi], NaN превращается в lo.
func bounded(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Summarize метка всего снимка: худшая из меток регионов.
func Summarize(blobs []entity.BlobDetection) entity.Classification {
	label := entity.Normal
	for _, b := range blobs {
		switch b.Classification {
		case entity.Faulty:
			return entity.Faulty
		case entity.PotentiallyFaulty:
			label = entity.PotentiallyFaulty
		}
	}
	return label
}
