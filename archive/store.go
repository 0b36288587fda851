// Package archive persists summaries of completed pipeline runs to a
// local SQLite database. The orchestration core itself owns no state;
// archival is an optional collaborator invoked after a run completes.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// RunRecord is one archived pipeline run.
type RunRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	Workflow      string `gorm:"size:32;index"`
	Status        string `gorm:"size:16;index"`
	Prompt        string
	Content       string
	Title         string `gorm:"size:255"`
	Keyword       string `gorm:"size:128"`
	ContentType   string `gorm:"size:64"`
	Steps         int
	CombinedScore int
	CreatedAt     time.Time `gorm:"index"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (RunRecord) TableName() string { return "pipeline_runs" }

// Store is a SQLite-backed run archive.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the archive database at path and migrates the
// schema. Use ":memory:" for an ephemeral archive.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "archive")),
	}, nil
}

// Save stores one run record. An existing record with the same ID is
// replaced.
func (s *Store) Save(ctx context.Context, rec RunRecord) error {
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("save run %q: %w", rec.ID, err)
	}
	s.logger.Debug("run archived",
		zap.String("run_id", rec.ID),
		zap.String("status", rec.Status))
	return nil
}

// Get retrieves one run by ID.
func (s *Store) Get(ctx context.Context, id string) (*RunRecord, error) {
	var rec RunRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get run %q: %w", id, err)
	}
	return &rec, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []RunRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	return recs, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
