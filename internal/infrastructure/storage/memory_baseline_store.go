package storage

import (
	"context"
	"image"
	"sync"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
)

// MemoryBaselineStore эталоны пользователей в памяти процесса.
type MemoryBaselineStore struct {
	mu     sync.RWMutex
	images map[int64]image.Image
}

// NewMemoryBaselineStore создаёт пустое хранилище эталонов.
func NewMemoryBaselineStore() *MemoryBaselineStore {
	return &MemoryBaselineStore{images: make(map[int64]image.Image)}
}

func (s *MemoryBaselineStore) Put(ctx context.Context, userID int64, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.images[userID] = img
	s.mu.Unlock()
	return nil
}

func (s *MemoryBaselineStore) Get(ctx context.Context, userID int64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	img, ok := s.images[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, entity.ErrNotFound
	}
	return img, nil
}

func (s *MemoryBaselineStore) Delete(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.images, userID)
	s.mu.Unlock()
	return nil
}

var _ port.BaselineStore = (*MemoryBaselineStore)(nil)
