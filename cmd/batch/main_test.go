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
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	app "thermo-inspector/internal/application"
	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/infrastructure/imageio"
)

// fakeDetector метит снимок как Faulty, если центр красный.
type fakeDetector struct {
	mu      sync.Mutex
	workers int
}

func (d *fakeDetector) Detect(_ context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	if req.Maintenance == nil {
		return nil, errors.New("no maintenance image")
	}
	rep := &entity.DetectionReport{
		TransformerID:   req.AssetID,
		MaintenancePath: req.MaintenancePath,
		ImageLevelLabel: entity.Normal,
		Blobs:           []entity.BlobDetection{},
	}
	b := req.Maintenance.Bounds()
	if r, g, _, _ := req.Maintenance.At(b.Dx()/2, b.Dy()/2).RGBA(); r == 0xffff && g == 0 {
		rep.ImageLevelLabel = entity.Faulty
		rep.Blobs = append(rep.Blobs, entity.BlobDetection{Classification: entity.Faulty})
	}
	return &entity.DetectionResult{Report: rep, Overlay: imaging.Clone(req.Maintenance)}, nil
}

func (d *fakeDetector) DetectBatch(ctx context.Context, baseline image.Image, reqs []entity.DetectionRequest, workers int) []entity.BatchItem {
	d.mu.Lock()
	d.workers = workers
	d.mu.Unlock()
	items := make([]entity.BatchItem, len(reqs))
	for i, req := range reqs {
		req.Baseline = baseline
		items[i].Result, items[i].Err = d.Detect(ctx, req)
	}
	return items
}

func newService(det *fakeDetector) *app.InspectionService {
	return app.NewInspectionService(nil, det, nil, nil, zerolog.Nop())
}

func writeImage(t *testing.T, path string, hot bool) {
	t.Helper()
	img := imaging.New(80, 80, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	if hot {
		for y := 30; y < 50; y++ {
			for x := 30; x < 50; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			}
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, imageio.SaveOverlay(img, path))
}

func readReport(t *testing.T, path string) entity.DetectionReport {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rep entity.DetectionReport
	require.NoError(t, json.Unmarshal(data, &rep))
	return rep
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), []string{"-asset", "T-1"}, newService(&fakeDetector{}), &stdout, &stderr))
	require.Contains(t, stderr.String(), "usage: batch")
}

func TestItemID(t *testing.T) {
	require.Equal(t, "T-7_img0", itemID("T-7", 0))
	require.Equal(t, "T-7_img12", itemID("T-7", 12))
}

func TestRun_WritesPerImageOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	base := filepath.Join(dir, "base.png")
	hot := filepath.Join(dir, "hot.png")
	calm := filepath.Join(dir, "calm.png")
	writeImage(t, base, false)
	writeImage(t, hot, true)
	writeImage(t, calm, false)

	var stdout, stderr bytes.Buffer
	det := &fakeDetector{}
	code := run(context.Background(), []string{
		"-asset", "T-7", "-baseline", base, "-out", out, "-workers", "2", hot, calm,
	}, newService(det), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Equal(t, 2, det.workers)
	require.Contains(t, stdout.String(), "T-7_img0 ("+hot+"): Faulty, blobs=1")

	require.FileExists(t, filepath.Join(out, "T-7_img0_overlay.png"))
	require.FileExists(t, filepath.Join(out, "T-7_img1_overlay.png"))

	rep := readReport(t, filepath.Join(out, "T-7_img0_report.json"))
	require.Equal(t, "T-7_img0", rep.TransformerID)
	require.Equal(t, entity.Faulty, rep.ImageLevelLabel)

	rep = readReport(t, filepath.Join(out, "T-7_img1_report.json"))
	require.Equal(t, "T-7_img1", rep.TransformerID)
	require.Equal(t, entity.Normal, rep.ImageLevelLabel)
	require.Empty(t, rep.Blobs)
}

func TestRun_SameBasenameInDifferentDirs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	base := filepath.Join(dir, "base.png")
	first := filepath.Join(dir, "north", "shot.png")
	second := filepath.Join(dir, "south", "shot.png")
	writeImage(t, base, false)
	writeImage(t, first, true)
	writeImage(t, second, false)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-asset", "T-9", "-baseline", base, "-out", out, first, second,
	}, newService(&fakeDetector{}), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	a := readReport(t, filepath.Join(out, "T-9_img0_report.json"))
	b := readReport(t, filepath.Join(out, "T-9_img1_report.json"))
	require.Equal(t, first, a.MaintenancePath)
	require.Equal(t, entity.Faulty, a.ImageLevelLabel)
	require.Equal(t, second, b.MaintenancePath)
	require.Equal(t, entity.Normal, b.ImageLevelLabel)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 4)
}

func TestRun_AssetWithSeparatorStaysInOutDir(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.png")
	calm := filepath.Join(dir, "calm.png")
	writeImage(t, base, false)
	writeImage(t, calm, false)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-asset", "sub/T-3", "-baseline", base, "-out", dir, calm,
	}, newService(&fakeDetector{}), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.FileExists(t, filepath.Join(dir, "sub_T-3_img0_report.json"))
}

func TestRun_MissingImageFailsOnlyThatItem(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.png")
	calm := filepath.Join(dir, "calm.png")
	writeImage(t, base, false)
	writeImage(t, calm, false)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-asset", "T-8", "-baseline", base, "-out", dir, filepath.Join(dir, "gone.png"), calm,
	}, newService(&fakeDetector{}), &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "gone.png")
	require.Contains(t, stderr.String(), "not found")
	require.NoFileExists(t, filepath.Join(dir, "T-8_img0_report.json"))
	require.FileExists(t, filepath.Join(dir, "T-8_img1_report.json"))
}
