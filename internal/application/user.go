package app

import (
	"context"

	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.SetState(state) })
}

// BeginCheck начинает проверку объекта assetID и ждёт эталонный снимок.
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64, assetID string, sensitivity *float64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.BeginInspection(assetID, sensitivity) })
}

// Cancel возвращает пользователя в главное меню.
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.Reset() })
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, fn func(*entity.User)) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	fn(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
