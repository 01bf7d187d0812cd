package db

import (
	"errors"
	"fmt"

	"socialpush/models"

	"gorm.io/gorm"
)

const friendLookupIndexMigration = "friends_lookup_index"

// CreateFriendLookupIndex создаёт индекс для поиска дружбы в обратном направлении (friend_id, user_id).
// Прямое направление покрывает уникальный индекс friend_pair_idx.
func CreateFriendLookupIndex(db *gorm.DB) error {
	return applyOnce(db, friendLookupIndexMigration, func(tx *gorm.DB) error {
		createIndexSQL := `CREATE INDEX IF NOT EXISTS idx_friends_friend_id_user_id ON friends (friend_id, user_id);`
		if err := tx.Exec(createIndexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index idx_friends_friend_id_user_id: %w", err)
		}
		return nil
	})
}

// applyOnce выполняет шаг схемы и записывает его в migrations; уже применённый шаг пропускается
func applyOnce(db *gorm.DB, name string, step func(tx *gorm.DB) error) error {
	var applied models.Migration
	err := db.Where("name = ?", name).First(&applied).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check migration %s: %w", name, err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := step(tx); err != nil {
			return err
		}
		return tx.Create(&models.Migration{Name: name}).Error
	})
}
