package imageio

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"thermo-inspector/internal/domain/entity"
)

func sample() *image.NRGBA {
	img := imaging.New(12, 8, color.NRGBA{R: 200, G: 40, B: 10, A: 255})
	img.SetNRGBA(3, 3, color.NRGBA{B: 255, A: 255})
	return img
}

func TestLoad_PNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.png")
	require.NoError(t, SaveOverlay(sample(), path))

	img, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
	r, _, b, _ := img.At(3, 3).RGBA()
	require.Equal(t, uint32(0), r)
	require.Equal(t, uint32(0xffff), b)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jpg"))
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestLoad_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err := Load(path)
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, sample(), imaging.PNG))
	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 12, img.Bounds().Dx())

	_, err = Decode(nil)
	require.ErrorIs(t, err, entity.ErrNotFound)
	_, err = Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestDecode_WebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, sample(), &webp.Options{Lossless: true}))
	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
}

func TestSaveOverlay_ReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.png")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, SaveOverlay(sample(), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Width)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSaveOverlay_UnknownExtensionKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.xyz")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.Error(t, SaveOverlay(sample(), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	rep := &entity.DetectionReport{
		TransformerID:   "T7",
		WarpModel:       entity.TransformAffine,
		ImageLevelLabel: entity.Normal,
		Blobs:           []entity.BlobDetection{},
	}
	require.NoError(t, WriteReport(rep, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "T7", got["transformer_id"])
	require.Equal(t, []any{}, got["blobs"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteReport_MissingDir(t *testing.T) {
	err := WriteReport(&entity.DetectionReport{}, filepath.Join(t.TempDir(), "no", "such", "r.json"))
	require.Error(t, err)
}
