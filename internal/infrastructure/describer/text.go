// Package describer превращает отчёт в короткий текст для оператора.
package describer

import (
	"context"
	"fmt"
	"strings"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
)

// TextDescriber детерминированная сводка без внешних сервисов.
type TextDescriber struct{}

// NewTextDescriber создаёт текстовый описатель.
func NewTextDescriber() *TextDescriber {
	return &TextDescriber{}
}

// Describe возвращает Summary отчёта, картинка не используется.
func (d *TextDescriber) Describe(ctx context.Context, report *entity.DetectionReport, overlayPNG []byte) (*entity.AiDescription, error) {
	_ = ctx
	_ = overlayPNG
	return &entity.AiDescription{Text: Summary(report)}, nil
}

// Summary сводка отчёта: итоговая метка, пороги, совмещение и регионы.
func Summary(r *entity.DetectionReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Объект %s: %s\n", r.TransformerID, r.ImageLevelLabel)
	fmt.Fprintf(&b, "Регионов: %d (Faulty %d, Potentially Faulty %d, Normal %d)\n",
		len(r.Blobs), r.CountBy(entity.Faulty), r.CountBy(entity.PotentiallyFaulty), r.CountBy(entity.Normal))
	fmt.Fprintf(&b, "SSIM %.3f, пороги ΔE %.1f / %.1f (%s)\n", r.MeanSSIM, r.Potential, r.Fault, r.Source)
	if r.WarpSuccess {
		fmt.Fprintf(&b, "Совмещение: %s\n", r.WarpModel)
	} else {
		b.WriteString("Совмещение не удалось, снимки сравнивались как есть\n")
	}
	for _, blob := range r.Blobs {
		if blob.Classification == entity.Normal {
			continue
		}
		fmt.Fprintf(&b, "#%d %s/%s: пик ΔE %.1f, уверенность %.2f, в точке (%.0f, %.0f)\n",
			blob.Label, blob.Classification, blob.Subtype, blob.PeakDeltaE, blob.Confidence,
			blob.Centroid[0], blob.Centroid[1])
	}
	return strings.TrimRight(b.String(), "\n")
}

var _ port.ReportDescriber = (*TextDescriber)(nil)
