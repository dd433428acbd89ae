package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"BookmarkAdmin/internal/cli/repo"
)

// Entry is one key/value row.
type Entry struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Entry) TableName() string { return "kv_entries" }

// Store — key-value хранилище на gorm (SQLite по умолчанию, Postgres по DSN).
type Store struct {
	db *gorm.DB
}

var _ repo.KVStore = (*Store)(nil)

// IsPostgresDSN reports whether dsn should be opened with the postgres driver.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open opens the database behind dsn and migrates the kv table.
// Any DSN that is not a postgres URL is treated as a SQLite file path.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("empty session dsn")
	}
	var dial gorm.Dialector
	if IsPostgresDSN(dsn) {
		dial = postgres.Open(dsn)
	} else {
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
				return nil, err
			}
		}
		// modernc.org/sqlite registers itself as "sqlite"; no cgo needed
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return s, nil
}

// Migrate гарантирует наличие таблицы kv_entries.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Entry{})
}

// Close закрывает соединение с БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", repo.ErrEmptyKey
	}
	var e Entry
	err := s.db.WithContext(ctx).First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// Set upserts the value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return repo.ErrEmptyKey
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Entry{Key: key, Value: value}).Error
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return repo.ErrEmptyKey
	}
	return s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error
}
