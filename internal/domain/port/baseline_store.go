package port

import (
	"context"
	"image"
)

// BaselineStore эталонные снимки, ожидающие снимка обслуживания.
type BaselineStore interface {
	// Put запоминает эталон пользователя, заменяя прежний
	Put(ctx context.Context, userID int64, img image.Image) error

	// Get возвращает эталон или entity.ErrNotFound
	Get(ctx context.Context, userID int64) (image.Image, error)

	// Delete забывает эталон пользователя
	Delete(ctx context.Context, userID int64) error
}
