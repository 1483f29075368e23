package chatlog

import (
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore wraps an open database and migrates the entries table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrap(err, "chatlog: migrate")
	}
	return &GormStore{db: db, now: time.Now}, nil
}

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "chatlog: connect to postgres")
	}
	return db, nil
}

func (s *GormStore) Append(ctx context.Context, e *Entry) error {
	if err := Normalize(e, s.now()); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return errors.Wrap(err, "chatlog: insert entry")
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, room string, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("room = ?", room).
		Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "chatlog: list entries")
	}
	slices.Reverse(entries)
	return entries, nil
}

// Open picks the store for a relay: Postgres when a DSN is configured,
// otherwise an in-memory log that lives as long as the process.
func Open(dsn string, log *zap.Logger) (Store, error) {
	if dsn == "" {
		log.Info("chat log kept in memory")
		return NewMemoryStore(), nil
	}
	db, err := OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	log.Info("chat log backed by postgres")
	return NewGormStore(db)
}
