package entity

import (
	"encoding/json"
	"image"
)

// Classification итоговая метка региона или снимка
type Classification string

const (
	Normal            Classification = "Normal"
	PotentiallyFaulty Classification = "Potentially Faulty"
	Faulty            Classification = "Faulty"
)

// Subtype характер аномалии
type Subtype string

const (
	SubtypeNone             Subtype = "None"
	SubtypeLooseJoint       Subtype = "LooseJoint"
	SubtypePointOverload    Subtype = "PointOverload"
	SubtypeFullWireOverload Subtype = "FullWireOverload"
)

// BBox ограничивающий прямоугольник региона
type BBox struct {
	X      int // координата X левого верхнего угла
	Y      int // координата Y левого верхнего угла
	Width  int // ширина в пикселях
	Height int // высота в пикселях
}

// Rect переводит прямоугольник в image.Rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// MarshalJSON сериализует прямоугольник как [x, y, w, h].
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X, b.Y, b.Width, b.Height})
}

// UnmarshalJSON читает прямоугольник из [x, y, w, h].
func (b *BBox) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = BBox{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	return nil
}

// BlobRegion связная компонента маски кандидатов и её признаки.
type BlobRegion struct {
	Label      int        `json:"label"`
	BBox       BBox       `json:"bbox"`
	Area       int        `json:"area"`
	Centroid   [2]float64 `json:"centroid"`
	MeanDeltaE float64    `json:"mean_deltaE"`
	PeakDeltaE float64    `json:"peak_deltaE"`
	MeanHSV    [3]float64 `json:"mean_hsv"`
	Elongation float64    `json:"elongation"`
}

// BlobDetection регион вместе с решением классификатора.
type BlobDetection struct {
	BlobRegion
	Classification Classification `json:"classification"`
	Subtype        Subtype        `json:"subtype"`
	Confidence     float64        `json:"confidence"` // 0..1
	Severity       float64        `json:"severity"`   // 0..100
}
