package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethpandaops/junitoor/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a report is not in the index.
var ErrNotFound = errors.New("report not found")

// Store provides persistence for indexed reports.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	UpsertReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, reportID string) (*Report, error)
	ListReports(ctx context.Context, collectionID string) ([]Report, error)
	DeleteReport(ctx context.Context, reportID string) error
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new index Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "index"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		if err := ensureDir(s.cfg.SQLite.Path); err != nil {
			return fmt.Errorf("creating index directory: %w", err)
		}

		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}

	// A sqlite database is owned by a single connection; ":memory:" would
	// otherwise hand every pooled connection its own empty database.
	if s.cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying db: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(&Report{}); err != nil {
		return fmt.Errorf("running index migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Index database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// UpsertReport inserts a report or replaces the row with the same report id.
func (s *store) UpsertReport(ctx context.Context, report *Report) error {
	if report.ReportID == "" {
		return fmt.Errorf("report id is required")
	}

	if report.IndexedAt.IsZero() {
		report.IndexedAt = time.Now().UTC()
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "report_id"}},
			UpdateAll: true,
		}).
		Create(report)
	if result.Error != nil {
		return fmt.Errorf("upserting report: %w", result.Error)
	}

	return nil
}

// GetReport returns a single report by its report id.
func (s *store) GetReport(ctx context.Context, reportID string) (*Report, error) {
	var report Report

	err := s.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}

	return &report, nil
}

// ListReports returns reports ordered newest first. An empty collectionID
// lists every collection.
func (s *store) ListReports(
	ctx context.Context, collectionID string,
) ([]Report, error) {
	query := s.db.WithContext(ctx)
	if collectionID != "" {
		query = query.Where("collection_id = ?", collectionID)
	}

	var reports []Report
	if err := query.
		Order("timestamp DESC").
		Order("report_id").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	return reports, nil
}

// DeleteReport removes a report from the index.
func (s *store) DeleteReport(ctx context.Context, reportID string) error {
	result := s.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Delete(&Report{})
	if result.Error != nil {
		return fmt.Errorf("deleting report: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ensureDir creates the parent directory of a sqlite database file.
func ensureDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}

	return os.MkdirAll(filepath.Dir(path), 0755)
}
