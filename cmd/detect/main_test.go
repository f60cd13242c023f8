package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/infrastructure/imageio"
)

// fakeDetector отдаёт один Faulty регион и запоминает запрос.
type fakeDetector struct {
	got   entity.DetectionRequest
	calls int
	err   error
}

func (d *fakeDetector) Detect(_ context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	d.calls++
	d.got = req
	if d.err != nil {
		return nil, d.err
	}
	return &entity.DetectionResult{
		Report: &entity.DetectionReport{
			TransformerID:   req.AssetID,
			BaselinePath:    req.BaselinePath,
			MaintenancePath: req.MaintenancePath,
			WarpModel:       entity.TransformAffine,
			WarpSuccess:     true,
			ImageLevelLabel: entity.Faulty,
			Blobs:           []entity.BlobDetection{{Classification: entity.Faulty}},
		},
		Overlay: imaging.Clone(req.Maintenance),
	}, nil
}

func (d *fakeDetector) DetectBatch(context.Context, image.Image, []entity.DetectionRequest, int) []entity.BatchItem {
	return nil
}

func writePair(t *testing.T, dir string) (string, string) {
	t.Helper()
	base := imaging.New(100, 100, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	maint := imaging.Clone(base)
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			maint.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	bp, mp := filepath.Join(dir, "base.png"), filepath.Join(dir, "maint.png")
	require.NoError(t, imageio.SaveOverlay(base, bp))
	require.NoError(t, imageio.SaveOverlay(maint, mp))
	return bp, mp
}

// preexisting создаёт выходные файлы от прошлого запуска.
func preexisting(t *testing.T, dir string) (string, string) {
	t.Helper()
	overlay, report := filepath.Join(dir, "out.png"), filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(overlay, []byte("old overlay"), 0o644))
	require.NoError(t, os.WriteFile(report, []byte("old report"), 0o644))
	return overlay, report
}

func requireContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, string(data))
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	det := &fakeDetector{}
	require.Equal(t, 1, run(context.Background(), []string{"T-1", "a.png"}, det, &stdout, &stderr))
	require.Contains(t, stderr.String(), "usage: detect")
	require.Empty(t, stdout.String())
	require.Zero(t, det.calls)
}

func TestRun_WritesOverlayAndReport(t *testing.T) {
	dir := t.TempDir()
	bp, mp := writePair(t, dir)
	overlay, report := filepath.Join(dir, "out.png"), filepath.Join(dir, "out.json")

	var stdout, stderr bytes.Buffer
	det := &fakeDetector{}
	code := run(context.Background(), []string{"T-1", bp, mp, overlay, report, "50%"}, det, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "T-1: Faulty, blobs=1 (faulty=1 potential=0)")

	require.NotNil(t, det.got.Sensitivity)
	require.InDelta(t, 50, *det.got.Sensitivity, 1e-9)
	require.Equal(t, image.Rect(0, 0, 100, 100), det.got.Baseline.Bounds())

	img, err := imageio.Load(overlay)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var rep entity.DetectionReport
	require.NoError(t, json.Unmarshal(data, &rep))
	require.Equal(t, "T-1", rep.TransformerID)
	require.Equal(t, mp, rep.MaintenancePath)
	require.Len(t, rep.Blobs, 1)
}

func TestRun_NoSliderMeansAdaptive(t *testing.T) {
	dir := t.TempDir()
	bp, mp := writePair(t, dir)

	var stdout, stderr bytes.Buffer
	det := &fakeDetector{}
	code := run(context.Background(), []string{"T-1", bp, mp, filepath.Join(dir, "o.png"), filepath.Join(dir, "r.json")}, det, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Nil(t, det.got.Sensitivity)
}

func TestRun_MissingBaselineKeepsPreviousOutputs(t *testing.T) {
	dir := t.TempDir()
	_, mp := writePair(t, dir)
	overlay, report := preexisting(t, dir)

	var stdout, stderr bytes.Buffer
	det := &fakeDetector{}
	code := run(context.Background(), []string{"T-1", filepath.Join(dir, "nope.png"), mp, overlay, report}, det, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "not found")
	require.Zero(t, det.calls)

	requireContent(t, overlay, "old overlay")
	requireContent(t, report, "old report")
}

func TestRun_DetectorErrorKeepsPreviousOutputs(t *testing.T) {
	dir := t.TempDir()
	bp, mp := writePair(t, dir)
	overlay, report := preexisting(t, dir)

	var stdout, stderr bytes.Buffer
	det := &fakeDetector{err: errors.New("boom")}
	code := run(context.Background(), []string{"T-1", bp, mp, overlay, report}, det, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "boom")

	requireContent(t, overlay, "old overlay")
	requireContent(t, report, "old report")
}

func TestRun_ReportFailureRemovesFreshOverlay(t *testing.T) {
	dir := t.TempDir()
	bp, mp := writePair(t, dir)
	overlay := filepath.Join(dir, "out.png")
	report := filepath.Join(dir, "missing", "out.json")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"T-1", bp, mp, overlay, report}, &fakeDetector{}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.NoFileExists(t, overlay)
	require.NoFileExists(t, report)
}
