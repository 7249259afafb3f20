package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentCacheModel is the row shape for the SQL-backed cache, the durable
// counterpart of the in-memory store.
type ContentCacheModel struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     []byte    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ContentCacheModel) TableName() string {
	return "content_cache"
}

// SQLContentStore persists cache envelopes through GORM (SQLite by default,
// Postgres when configured). Like the memory store it holds entries until the
// service's read-expiry removes them; the ttl argument is ignored.
type SQLContentStore struct {
	db *gorm.DB
}

func NewSQLContentStore(db *gorm.DB) *SQLContentStore {
	return &SQLContentStore{db: db}
}

// InitSchema creates the cache table when missing.
func (s *SQLContentStore) InitSchema(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&ContentCacheModel{})
}

func (s *SQLContentStore) Get(ctx context.Context, key string) ([]byte, error) {
	var m ContentCacheModel
	if err := s.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return m.Value, nil
}

func (s *SQLContentStore) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value, "updated_at": time.Now().UTC()}),
	}).Create(&ContentCacheModel{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}).Error
}

func (s *SQLContentStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&ContentCacheModel{}, "key = ?", key).Error
}

func (s *SQLContentStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&ContentCacheModel{}).
		Order("key").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *SQLContentStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("DELETE FROM content_cache").Error
}

func (s *SQLContentStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
