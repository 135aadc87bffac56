package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"voicememo/config"
)

// ErrPersistenceFailed marks a failure of the store itself, as opposed to
// the data it carries being wrong.
var ErrPersistenceFailed = errors.New("persistence failed")

// KeyValue is an asynchronous string-keyed persistent map. Values are
// serialized JSON documents; consistency across keys is the caller's problem.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

type kvEntry struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;type:text"`
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

type kvStore struct {
	db *gorm.DB
}

func New(cfg *config.Config) (KeyValue, error) {
	var dialector gorm.Dialector
	if cfg.Storage.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		dialector = postgres.New(postgres.Config{Conn: db})
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SqlitePath), os.ModePerm); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.Storage.SqlitePath)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := gormDB.AutoMigrate(&kvEntry{}); err != nil {
		return nil, err
	}

	return &kvStore{db: gormDB}, nil
}

func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	entry := &kvEntry{}
	err := s.db.WithContext(ctx).First(entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	return entry.Value, true, nil
}

func (s *kvStore) Set(ctx context.Context, key string, value string) error {
	entry := &kvEntry{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	return nil
}
