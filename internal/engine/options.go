package engine

import "errors"

// ErrUnavailable сборка без OpenCV: конвейер не может работать.
var ErrUnavailable = errors.New("detector requires the gocv build tag")

// Options настройки детектора, не меняющиеся между вызовами.
type Options struct {
	SkipTopology bool // классифицировать только по цветовым полосам
	MinBlobArea  int  // меньше MinBlobArea не бывает
}

// normalized площадь ниже MinBlobArea поднимается до неё: мельче только шум.
func (o Options) normalized() Options {
	if o.MinBlobArea < MinBlobArea {
		o.MinBlobArea = MinBlobArea
	}
	return o
}
