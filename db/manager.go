package db

import (
	"context"
	"fmt"
	"sync"

	"socialpush/config"
	"socialpush/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	ORM     *gorm.DB
	ormOnce sync.Once
	ormErr  error
)

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

// ConnectDB открывает подключение к мастеру и репликам один раз за процесс
func ConnectDB() error {
	ormOnce.Do(func() {
		ormErr = connect()
	})
	return ormErr
}

func connect() error {
	conf := config.AppConfig
	if conf == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}
	if conf.Databases.Master.Host == "" {
		return fmt.Errorf("master database configuration is missing")
	}

	replicaDSNs := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
	for _, r := range conf.Databases.Replicas {
		replicaDSNs = append(replicaDSNs, postgres.Open(dsnFromConfig(r)))
	}

	db, err := gorm.Open(postgres.Open(dsnFromConfig(conf.Databases.Master)), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open master: %w", err)
	}

	if len(replicaDSNs) > 0 {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicaDSNs,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return fmt.Errorf("failed to register replicas: %w", err)
		}
	}

	return UseDB(db)
}

// UseDB мигрирует схему и делает db глобальным подключением (используется и в тестах с sqlite)
func UseDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Friend{}, &models.Migration{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	if err := CreateFriendLookupIndex(db); err != nil {
		return err
	}
	ORM = db
	return nil
}

// GetReadOnlyDB возвращает подключение для чтения (реплики)
func GetReadOnlyDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB возвращает подключение для записи (мастер)
func GetWriteDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Write)
}

func CloseDB() error {
	if ORM == nil {
		return nil
	}
	sqlDB, err := ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
