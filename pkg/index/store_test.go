package index_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/junitoor/pkg/config"
	"github.com/ethpandaops/junitoor/pkg/export"
	"github.com/ethpandaops/junitoor/pkg/index"
)

func setupTestStore(t *testing.T) index.Store {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := index.NewStore(log, cfg)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func TestStore_UpsertAndGetReport(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	report := &index.Report{
		ReportID:       "1710928800_col-1",
		CollectionID:   "col-1",
		CollectionName: "My API",
		Timestamp:      1710928800,
		Suites:         2,
		Tests:          7,
		Failures:       1,
		Time:           0.25,
		Path:           "reports/newman-run-report.xml",
	}
	require.NoError(t, s.UpsertReport(ctx, report))

	got, err := s.GetReport(ctx, "1710928800_col-1")
	require.NoError(t, err)
	assert.Equal(t, "My API", got.CollectionName)
	assert.Equal(t, 7, got.Tests)
	assert.Equal(t, 1, got.Failures)
	assert.InDelta(t, 0.25, got.Time, 1e-9)
	assert.False(t, got.IndexedAt.IsZero())
}

func TestStore_UpsertReplacesExisting(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertReport(ctx, &index.Report{
		ReportID: "r-1", CollectionID: "col-1", Tests: 5, Failures: 2,
	}))
	require.NoError(t, s.UpsertReport(ctx, &index.Report{
		ReportID: "r-1", CollectionID: "col-1", Tests: 6, Failures: 0,
		UploadedKey: "reports/r-1.xml",
	}))

	reports, err := s.ListReports(ctx, "col-1")
	require.NoError(t, err)
	require.Len(t, reports, 1, "upsert must not duplicate the row")

	assert.Equal(t, 6, reports[0].Tests)
	assert.Equal(t, 0, reports[0].Failures)
	assert.Equal(t, "reports/r-1.xml", reports[0].UploadedKey)
}

func TestStore_UpsertRequiresReportID(t *testing.T) {
	s := setupTestStore(t)

	require.Error(t, s.UpsertReport(context.Background(), &index.Report{}))
}

func TestStore_ListReports(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	reports := []index.Report{
		{ReportID: "100_a", CollectionID: "a", Timestamp: 100},
		{ReportID: "300_a", CollectionID: "a", Timestamp: 300},
		{ReportID: "200_b", CollectionID: "b", Timestamp: 200},
	}
	for i := range reports {
		require.NoError(t, s.UpsertReport(ctx, &reports[i]))
	}

	tests := []struct {
		name         string
		collectionID string
		want         []string
	}{
		{
			name:         "single collection newest first",
			collectionID: "a",
			want:         []string{"300_a", "100_a"},
		},
		{
			name:         "all collections",
			collectionID: "",
			want:         []string{"300_a", "200_b", "100_a"},
		},
		{
			name:         "unknown collection",
			collectionID: "zzz",
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListReports(ctx, tt.collectionID)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ReportID)
			}

			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_GetReportNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetReport(context.Background(), "missing")
	require.ErrorIs(t, err, index.ErrNotFound)
}

func TestStore_DeleteReport(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertReport(ctx, &index.Report{ReportID: "r-1"}))
	require.NoError(t, s.DeleteReport(ctx, "r-1"))

	_, err := s.GetReport(ctx, "r-1")
	require.ErrorIs(t, err, index.ErrNotFound)

	require.ErrorIs(t, s.DeleteReport(ctx, "r-1"), index.ErrNotFound)
}

func TestStore_UnsupportedDriver(t *testing.T) {
	s := index.NewStore(logrus.New(), &config.DatabaseConfig{Driver: "mysql"})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
	require.NoError(t, s.Stop())
}

func TestNewReport(t *testing.T) {
	started := time.Date(2024, 3, 20, 10, 0, 0, 123e6, time.UTC)

	summary := export.Summary{
		CollectionID:   "8cec1fab-1234",
		CollectionName: "My API",
		StartedAt:      started,
		Suites:         2,
		Tests:          7,
		Failures:       1,
		Errors:         0,
		Time:           0.25,
	}
	host := index.Host{Hostname: "ci-runner", OS: "linux", Platform: "ubuntu 24.04"}

	r := index.NewReport(summary, "reports/out.xml", "reports/out.xml", host)

	assert.Equal(t, summary.ReportID(), r.ReportID)
	assert.Equal(t, started.Unix(), r.Timestamp)
	assert.Equal(t, "8cec1fab-1234", r.CollectionID)
	assert.Equal(t, 7, r.Tests)
	assert.Equal(t, "ci-runner", r.Hostname)
	assert.Equal(t, "ubuntu 24.04", r.Platform)
	assert.Equal(t, "reports/out.xml", r.UploadedKey)
}

func TestNewReportUnknownStart(t *testing.T) {
	r := index.NewReport(export.Summary{}, "out.xml", "", index.Host{})

	assert.Equal(t, "0_unknown", r.ReportID)
	assert.Zero(t, r.Timestamp)
}

func TestStore_CreatesSQLiteDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	s := index.NewStore(logrus.New(), &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteDatabaseConfig{Path: path},
	})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.UpsertReport(context.Background(), &index.Report{ReportID: "r-1"}))
	assert.FileExists(t, path)
}
