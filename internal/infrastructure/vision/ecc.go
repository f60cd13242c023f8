//go:build gocv
// +build gocv

package vision

/*
#cgo !windows pkg-config: opencv4
#cgo CXXFLAGS: --std=c++11
#include "ecc.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"gocv.io/x/gocv"
)

// ErrECC findTransformECC не сошёлся: OpenCV бросил исключение.
var ErrECC = errors.New("ecc did not converge")

// findTransformECC аффинный ECC. В отличие от gocv.FindTransformECC исключение
// OpenCV возвращается ошибкой и не завершает процесс.
func findTransformECC(tmpl, input gocv.Mat, warp *gocv.Mat, mask gocv.Mat, iterations int, eps float64, gauss int) (float64, error) {
	var cc C.double
	msg := make([]byte, 512)
	rc := C.thermo_find_transform_ecc(
		unsafe.Pointer(tmpl.Ptr()),
		unsafe.Pointer(input.Ptr()),
		unsafe.Pointer(warp.Ptr()),
		unsafe.Pointer(mask.Ptr()),
		C.int(iterations), C.double(eps), C.int(gauss),
		&cc, (*C.char)(unsafe.Pointer(&msg[0])), C.int(len(msg)),
	)
	if rc != 0 {
		return 0, fmt.Errorf("%w: %s", ErrECC, C.GoString((*C.char)(unsafe.Pointer(&msg[0]))))
	}
	return float64(cc), nil
}
