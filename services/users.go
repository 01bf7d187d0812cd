package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialpush/db"
	"socialpush/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore - хранилище профилей: push-токены, имена и записи о дружбе.
// Чтение идёт через реплики, запись - через мастер.
type UserStore struct{}

func NewUserStore() *UserStore {
	return &UserStore{}
}

// PushToken возвращает пустой токен без ошибки, если пользователя нет или он не дал разрешение
func (s *UserStore) PushToken(ctx context.Context, userID string) (models.PushTarget, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Select("id", "fcm_token").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load push token: %w", err)
	}
	if user.FCMToken == nil {
		return "", nil
	}
	return models.PushTarget(*user.FCMToken), nil
}

func (s *UserStore) DisplayName(ctx context.Context, userID string) (string, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Select("id", "name").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user name: %w", err)
	}
	return user.Name, nil
}

// FriendshipExists проверяет дружбу в обоих направлениях
func (s *UserStore) FriendshipExists(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Friend{}).Where(
		"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userA, userB, userB, userA,
	).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking friendship: %w", err)
	}
	return count > 0, nil
}

// SaveUser создаёт или обновляет профиль (имя и токен)
func (s *UserStore) SaveUser(ctx context.Context, user *models.User) error {
	err := db.GetWriteDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "fcm_token", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// AddFriendship записывает дружбу; повторная запись не считается ошибкой
func (s *UserStore) AddFriendship(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return fmt.Errorf("cannot add yourself as friend")
	}
	friendship := &models.Friend{
		UserID:    userID,
		FriendID:  friendID,
		CreatedAt: time.Now(),
	}
	err := db.GetWriteDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(friendship).Error
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}
