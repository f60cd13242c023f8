package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/raster"
)

func region(hue, peak, mean, elong float64) entity.BlobRegion {
	return entity.BlobRegion{
		Label:      1,
		BBox:       entity.BBox{X: 10, Y: 14, Width: 5, Height: 3},
		Area:       15,
		Centroid:   [2]float64{12, 15},
		MeanDeltaE: mean,
		PeakDeltaE: peak,
		MeanHSV:    [3]float64{hue, 200, 150},
		Elongation: elong,
	}
}

var (
	fullWire  = &WireFacts{Coverage: Coverage{Coverage: 1, HotLen: 30, WireLen: 30}}
	pointWire = &WireFacts{Coverage: Coverage{Coverage: 0.12, HotLen: 3, WireLen: 25, CoolFraction: 0.96}}
	atJoint   = &WireFacts{NearJoint: true}
)

func allSet(w, h int) *raster.Mask {
	return raster.MaskWhere(w, h, func(int) bool { return true })
}

func TestClassify_ColorOnly(t *testing.T) {
	tests := []struct {
		name    string
		region  entity.BlobRegion
		want    entity.Classification
		subtype entity.Subtype
	}{
		{"red above fault", region(5, 30, 20, 1), entity.Faulty, entity.SubtypePointOverload},
		{"orange above fault", region(20, 13, 10, 1), entity.Faulty, entity.SubtypePointOverload},
		{"yellow above potential", region(30, 9, 9, 1), entity.PotentiallyFaulty, entity.SubtypePointOverload},
		{"red below fault, elongated", region(5, 10, 9, 5), entity.PotentiallyFaulty, entity.SubtypePointOverload},
		{"red below fault, compact", region(5, 10, 9, 1), entity.Normal, entity.SubtypeNone},
		{"cool hue", region(100, 30, 20, 1), entity.Normal, entity.SubtypeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(ClassifyInput{Region: tt.region, FaultThreshold: 12, PotentialThreshold: 8})
			require.Equal(t, tt.want, v.Classification)
			require.Equal(t, tt.subtype, v.Subtype)
		})
	}
}

func TestClassify_ConfidenceAndSeverity(t *testing.T) {
	v := Classify(ClassifyInput{Region: region(5, 30, 20, 1), FaultThreshold: 12, PotentialThreshold: 8})
	require.Equal(t, 1.0, v.Confidence)
	require.InDelta(t, 0.6*30+0.4*20+0.005*15, v.Severity, 1e-9)

	cool := Classify(ClassifyInput{Region: region(100, 8, 8, 1), FaultThreshold: 12, PotentialThreshold: 8})
	require.InDelta(t, 0.5, cool.Confidence, 1e-9)
}

func TestClassify_NearJoint(t *testing.T) {
	v := Classify(ClassifyInput{
		Region:             region(5, 30, 20, 1),
		FaultThreshold:     12,
		PotentialThreshold: 8,
		Wire:               atJoint,
	})
	require.True(t, v.NearJoint)
	require.Equal(t, entity.Faulty, v.Classification)
	require.Equal(t, entity.SubtypeLooseJoint, v.Subtype)
}

func TestClassify_FullWire(t *testing.T) {
	v := Classify(ClassifyInput{
		Region:             region(5, 30, 20, 1),
		FaultThreshold:     12,
		PotentialThreshold: 8,
		Wire:               fullWire,
	})
	require.Equal(t, 1.0, v.Coverage.Coverage)
	require.Equal(t, entity.PotentiallyFaulty, v.Classification)
	require.Equal(t, entity.SubtypeFullWireOverload, v.Subtype)
}

func TestClassify_PointOverload(t *testing.T) {
	v := Classify(ClassifyInput{
		Region:             region(5, 30, 20, 1),
		FaultThreshold:     12,
		PotentialThreshold: 8,
		Wire:               pointWire,
	})
	require.InDelta(t, 0.12, v.Coverage.Coverage, 1e-9)
	require.InDelta(t, 0.96, v.Coverage.CoolFraction, 1e-9)
	require.Equal(t, entity.Faulty, v.Classification)
	require.Equal(t, entity.SubtypePointOverload, v.Subtype)
}

func TestClassify_AbsoluteHotPromotion(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		v := Classify(ClassifyInput{
			Region:             region(100, 30, 20, 1),
			FaultThreshold:     12,
			PotentialThreshold: 8,
			Wire:               pointWire,
			AbsoluteHot:        allSet(30, 30),
		})
		require.Equal(t, entity.Faulty, v.Classification)
		require.Equal(t, entity.SubtypePointOverload, v.Subtype)
	})

	t.Run("full wire", func(t *testing.T) {
		v := Classify(ClassifyInput{
			Region:             region(100, 30, 20, 1),
			FaultThreshold:     12,
			PotentialThreshold: 8,
			Wire:               fullWire,
			AbsoluteHot:        allSet(30, 30),
		})
		require.Equal(t, entity.PotentiallyFaulty, v.Classification)
		require.Equal(t, entity.SubtypeFullWireOverload, v.Subtype)
	})

	t.Run("joint by brightness", func(t *testing.T) {
		r := region(100, 30, 20, 1)
		r.MeanHSV[2] = 220
		v := Classify(ClassifyInput{
			Region:             r,
			FaultThreshold:     12,
			PotentialThreshold: 8,
			Wire:               atJoint,
			AbsoluteHot:        raster.NewMask(30, 30),
		})
		require.Equal(t, entity.Faulty, v.Classification)
		require.Equal(t, entity.SubtypeLooseJoint, v.Subtype)
	})

	t.Run("dim joint stays normal", func(t *testing.T) {
		v := Classify(ClassifyInput{
			Region:             region(100, 30, 20, 1),
			FaultThreshold:     12,
			PotentialThreshold: 8,
			Wire:               atJoint,
			AbsoluteHot:        raster.NewMask(30, 30),
		})
		require.Equal(t, entity.Normal, v.Classification)
		require.Equal(t, entity.SubtypeLooseJoint, v.Subtype)
	})
}

func TestClassify_BoundsHoldForRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		r := region(rng.Float64()*180, rng.Float64()*120, rng.Float64()*80, 1+rng.Float64()*10)
		r.Area = rng.Intn(20000)
		r.MeanHSV[2] = rng.Float64() * 255
		in := ClassifyInput{
			Region:             r,
			PotentialThreshold: 6 + rng.Float64()*7,
			AbsoluteHot:        raster.NewMask(30, 30),
		}
		in.FaultThreshold = in.PotentialThreshold * 1.5
		if i%2 == 0 {
			in.Wire = &WireFacts{
				NearJoint: rng.Intn(2) == 0,
				Coverage:  Coverage{Coverage: rng.Float64(), CoolFraction: rng.Float64()},
			}
		}
		v := Classify(in)
		require.GreaterOrEqual(t, v.Confidence, 0.0)
		require.LessOrEqual(t, v.Confidence, 1.0)
		require.GreaterOrEqual(t, v.Severity, 0.0)
		require.LessOrEqual(t, v.Severity, 100.0)
	}
}

func TestSummarize(t *testing.T) {
	mk := func(cs ...entity.Classification) []entity.BlobDetection {
		out := make([]entity.BlobDetection, 0, len(cs))
		for _, c := range cs {
			out = append(out, entity.BlobDetection{Classification: c})
		}
		return out
	}
	require.Equal(t, entity.Normal, Summarize(nil))
	require.Equal(t, entity.Normal, Summarize(mk(entity.Normal)))
	require.Equal(t, entity.PotentiallyFaulty, Summarize(mk(entity.Normal, entity.PotentiallyFaulty)))
	require.Equal(t, entity.Faulty, Summarize(mk(entity.PotentiallyFaulty, entity.Faulty, entity.Normal)))
}
