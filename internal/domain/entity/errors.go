package entity

import "errors"

// ErrNotFound входное изображение отсутствует или не читается.
var ErrNotFound = errors.New("resource not found")
