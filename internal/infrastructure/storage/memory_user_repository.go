package storage

import (
	"context"
	"sync"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей.
// Наружу отдаются копии, изменения вступают в силу только через Save.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]entity.User),
	}
}

// Get возвращает пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = *entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	return cloneUser(user), nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.users[user.ID] = *cloneUser(*user)
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return entity.ErrNotFound
	}
	user.SetState(state)
	r.users[userID] = user
	return nil
}

func cloneUser(u entity.User) *entity.User {
	if u.Sensitivity != nil {
		s := *u.Sensitivity
		u.Sensitivity = &s
	}
	return &u
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
