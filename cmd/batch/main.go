// Command batch сравнивает один эталон с несколькими снимками обслуживания.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"thermo-inspector/config"
	app "thermo-inspector/internal/application"
	"thermo-inspector/internal/container"
	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/infrastructure/imageio"
	"thermo-inspector/internal/logger"
)

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

	os.Exit(run(ctx, os.Args[1:], c.InspectionService, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, svc *app.InspectionService, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asset := fs.String("asset", "", "asset (transformer) id")
	baseline := fs.String("baseline", "", "baseline image path")
	outDir := fs.String("out", ".", "output directory")
	slider := fs.String("slider", "", "sensitivity 0..100, empty for adaptive thresholds")
	workers := fs.Int("workers", 0, "parallel comparisons, 0 keeps BATCH_WORKERS")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *asset == "" || *baseline == "" || fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: batch -asset ID -baseline PATH [-out DIR] [-slider P] [-workers N] maint1 [maint2 ...]")
		return 1
	}
	if *workers > 0 {
		svc.Workers = *workers
	}

	base, err := imageio.Load(*baseline)
	if err != nil {
		fmt.Fprintf(stderr, "batch: %v\n", err)
		return 1
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(stderr, "batch: %v\n", err)
		return 1
	}

	sens := entity.ParseSensitivity(*slider)
	paths := fs.Args()
	reqs := make([]entity.DetectionRequest, len(paths))
	loadErrs := make([]error, len(paths))
	for i, p := range paths {
		reqs[i] = entity.DetectionRequest{
			AssetID:         itemID(*asset, i),
			BaselinePath:    *baseline,
			MaintenancePath: p,
			Sensitivity:     sens,
		}
		reqs[i].Maintenance, loadErrs[i] = imageio.Load(p)
	}

	_, items, err := svc.InspectBatch(ctx, base, reqs)
	if err != nil {
		fmt.Fprintf(stderr, "batch: %v\n", err)
		return 1
	}

	code := 0
	for i, it := range items {
		if loadErrs[i] != nil {
			it.Err = loadErrs[i]
		}
		if it.Err == nil {
			it.Err = write(it.Result, *outDir, reqs[i].AssetID)
		}
		if it.Err != nil {
			code = 1
			fmt.Fprintf(stderr, "%s: %v\n", paths[i], it.Err)
			continue
		}
		r := it.Result.Report
		fmt.Fprintf(stdout, "%s (%s): %s, blobs=%d\n", reqs[i].AssetID, paths[i], r.ImageLevelLabel, len(r.Blobs))
	}
	return code
}

// itemID идентификатор снимка в пакете: <объект>_img<номер с нуля>.
// Имена файлов строятся из него, поэтому совпадающие имена снимков
// из разных каталогов не затирают друг друга.
func itemID(asset string, idx int) string {
	return fmt.Sprintf("%s_img%d", asset, idx)
}

var unsafeName = strings.NewReplacer("/", "_", `\`, "_", ":", "_")

// write сохраняет <id>_overlay.png и <id>_report.json.
func write(res *entity.DetectionResult, dir, id string) error {
	name := unsafeName.Replace(id)
	overlay := filepath.Join(dir, name+"_overlay.png")
	report := filepath.Join(dir, name+"_report.json")

	_, statErr := os.Stat(overlay)
	existed := statErr == nil
	if err := imageio.SaveOverlay(res.Overlay, overlay); err != nil {
		return err
	}
	if err := imageio.WriteReport(res.Report, report); err != nil {
		if !existed {
			_ = os.Remove(overlay)
		}
		return err
	}
	return nil
}
