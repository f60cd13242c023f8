// Command detect сравнивает эталонный снимок со снимком обслуживания
// и пишет разметку и JSON-отчёт.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"thermo-inspector/config"
	"thermo-inspector/internal/container"
	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
	"thermo-inspector/internal/infrastructure/imageio"
	"thermo-inspector/internal/logger"
)

const usage = "usage: detect <assetId> <baselinePath> <maintenancePath> <overlayOutPath> <reportOutPath> [sliderPercent]"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zl, err := logger.FromConfig(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	c, err := container.New(cfg, zl)
	if err != nil {
		zl.Fatal().Err(err).Msg("failed to build container")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], c.Detector, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, detector port.AnomalyDetector, stdout, stderr io.Writer) int {
	if len(args) != 5 && len(args) != 6 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	assetID, basePath, maintPath, overlayPath, reportPath := args[0], args[1], args[2], args[3], args[4]

	var slider *float64
	if len(args) == 6 {
		slider = entity.ParseSensitivity(args[5])
	}

	if err := detect(ctx, detector, entity.DetectionRequest{
		AssetID:         assetID,
		BaselinePath:    basePath,
		MaintenancePath: maintPath,
		Sensitivity:     slider,
	}, overlayPath, reportPath, stdout); err != nil {
		fmt.Fprintf(stderr, "detect: %v\n", err)
		return 1
	}
	return 0
}

func detect(ctx context.Context, detector port.AnomalyDetector, req entity.DetectionRequest, overlayPath, reportPath string, stdout io.Writer) error {
	var err error
	if req.Baseline, err = imageio.Load(req.BaselinePath); err != nil {
		return err
	}
	if req.Maintenance, err = imageio.Load(req.MaintenancePath); err != nil {
		return err
	}

	res, err := detector.Detect(ctx, req)
	if err != nil {
		return err
	}
	_, statErr := os.Stat(overlayPath)
	existed := statErr == nil
	if err := imageio.SaveOverlay(res.Overlay, overlayPath); err != nil {
		return err
	}
	if err := imageio.WriteReport(res.Report, reportPath); err != nil {
		// разметка без отчёта не нужна; чужие файлы не трогаем
		if !existed {
			_ = os.Remove(overlayPath)
		}
		return err
	}

	r := res.Report
	fmt.Fprintf(stdout, "%s: %s, blobs=%d (faulty=%d potential=%d), ssim=%.3f, t_pot=%.2f t_fault=%.2f, warp=%s/%t\n",
		r.TransformerID, r.ImageLevelLabel, len(r.Blobs),
		r.CountBy(entity.Faulty), r.CountBy(entity.PotentiallyFaulty),
		r.MeanSSIM, r.Potential, r.Fault, r.WarpModel, r.WarpSuccess)
	return nil
}
