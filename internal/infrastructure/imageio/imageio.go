// Package imageio читает снимки с диска и из памяти и пишет результаты анализа.
package imageio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"thermo-inspector/internal/domain/entity"
)

// Load читает снимок. Отсутствующий или нераспознанный файл даёт entity.ErrNotFound.
func Load(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	} else if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, entity.ErrNotFound)
	}

	// запасной путь для WebP, который не разобрал стандартный декодер
	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, entity.ErrNotFound)
		}
		defer f.Close()
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("%s: unknown image format: %w", path, entity.ErrNotFound)
}

// Decode разбирает снимок из байтов (фото из Telegram, тело запроса).
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image: %w", entity.ErrNotFound)
	}
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("unknown image format: %w", entity.ErrNotFound)
}

// SaveOverlay сохраняет картинку, формат выбирается по расширению.
// Как и WriteReport, пишет через временный файл: прежний файл по пути
// заменяется только готовым результатом.
func SaveOverlay(img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("save overlay %s: %w", path, err)
	}
	err = replaceFile(path, ".overlay-*"+filepath.Ext(path), func(f *os.File) error {
		return imaging.Encode(f, img, format)
	})
	if err != nil {
		return fmt.Errorf("save overlay %s: %w", path, err)
	}
	return nil
}

// WriteReport пишет отчёт в JSON. Файл появляется целиком или не появляется вовсе.
func WriteReport(report *entity.DetectionReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	err = replaceFile(path, ".report-*.json", func(f *os.File) error {
		_, err := f.Write(append(data, '\n'))
		return err
	})
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// replaceFile пишет во временный файл рядом с path и переименовывает его.
func replaceFile(path, pattern string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
