package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ethpandaops/junitoor/pkg/collection"
	"github.com/ethpandaops/junitoor/pkg/config"
	"github.com/ethpandaops/junitoor/pkg/export"
	"github.com/ethpandaops/junitoor/pkg/index"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreSummary = `{
  "collection": {
    "info": {"_postman_id": "8cec1fab-aaaa", "name": "Petstore"},
    "item": [{"id": "r1", "name": "List pets"}]
  },
  "run": {
    "stats": {"tests": {"total": 2, "failed": 1}},
    "timings": {"started": 1710928800123},
    "executions": [
      {
        "item": {"id": "r1"},
        "response": {"code": 200, "responseTime": 250},
        "assertions": [
          {"assertion": "status is 200"},
          {"assertion": "has body", "error": {"message": "expected body"}}
        ]
      }
    ]
  }
}`

const ordersSummary = `{
  "collection": {
    "info": {"_postman_id": "0rders-bbbb", "name": "Orders"},
    "item": [{"id": "o1", "name": "Create order"}]
  },
  "run": {
    "stats": {"tests": {"total": 1}},
    "timings": {"started": 1710928900000},
    "executions": [
      {"item": {"id": "o1"}, "response": {"responseTime": 40}, "assertions": [{"assertion": "created"}]}
    ]
  }
}`

type fakeUploader struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func (f *fakeUploader) Preflight(context.Context) error { return nil }

func (f *fakeUploader) Upload(_ context.Context, name string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.keys == nil {
		f.keys = make(map[string][]byte)
	}

	key := "reports/" + name
	f.keys[key] = content

	return key, nil
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func writeSummary(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestConvertSingleSummary(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "reports")

	path := writeSummary(t, in, "petstore.json", petstoreSummary)

	c := New(testLogger(), Options{OutputDir: out, Concurrency: 2},
		export.NewLocalWriter(testLogger(), out, nil))

	results, err := c.Convert(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, path, res.Source)
	assert.Equal(t, filepath.Join(out, "newman-run-report.xml"), res.Path)
	assert.False(t, res.Skipped)
	assert.Equal(t, "Petstore", res.Summary.CollectionName)
	assert.Equal(t, 1, res.Summary.Failures)
	assert.Empty(t, res.UploadedKey)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testsuites name="Petstore" tests="2" time="0.250">`)
	assert.Contains(t, string(data), `classname="ListPets"`)
}

func TestConvertManySummaries(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	paths := []string{
		writeSummary(t, in, "petstore.json", petstoreSummary),
		writeSummary(t, in, "orders.json", ordersSummary),
	}

	store := index.NewStore(testLogger(), &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	})
	require.NoError(t, store.Start(context.Background()))
	t.Cleanup(func() { _ = store.Stop() })

	uploader := &fakeUploader{}

	c := New(testLogger(), Options{OutputDir: out, Concurrency: 2},
		export.NewLocalWriter(testLogger(), out, nil),
		WithUploader(uploader),
		WithIndex(store, index.Host{Hostname: "ci"}),
	)

	results, err := c.Convert(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 2)

	petstoreID := results[0].Summary.ReportID()
	ordersID := results[1].Summary.ReportID()

	assert.True(t, strings.HasPrefix(petstoreID, "1710928800_8cec1fab_"), petstoreID)
	assert.True(t, strings.HasPrefix(ordersID, "1710928900_0rders-b_"), ordersID)
	assert.Equal(t, paths[0], results[0].Summary.Source)

	assert.Equal(t, filepath.Join(out, petstoreID+".xml"), results[0].Path)
	assert.Equal(t, filepath.Join(out, ordersID+".xml"), results[1].Path)
	assert.Equal(t, "reports/"+petstoreID+".xml", results[0].UploadedKey)
	assert.Len(t, uploader.keys, 2)

	for _, res := range results {
		assert.FileExists(t, res.Path)
	}

	reports, err := store.ListReports(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, ordersID, reports[0].ReportID)
	assert.Equal(t, "ci", reports[0].Hostname)

	petstore, err := store.GetReport(context.Background(), petstoreID)
	require.NoError(t, err)
	assert.Equal(t, results[0].Path, petstore.Path)
	assert.Equal(t, "reports/"+petstoreID+".xml", petstore.UploadedKey)
	assert.Equal(t, 1, petstore.Failures)
}

func TestConvertSameCollectionSameStart(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	renamed := strings.Replace(petstoreSummary, `"status is 200"`, `"status is OK"`, 1)
	require.NotEqual(t, petstoreSummary, renamed)

	paths := []string{
		writeSummary(t, in, "a.json", petstoreSummary),
		writeSummary(t, in, "b.json", renamed),
	}

	store := index.NewStore(testLogger(), &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	})
	require.NoError(t, store.Start(context.Background()))
	t.Cleanup(func() { _ = store.Stop() })

	c := New(testLogger(), Options{OutputDir: out, Concurrency: 2},
		export.NewLocalWriter(testLogger(), out, nil),
		WithIndex(store, index.Host{}),
	)

	results, err := c.Convert(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NotEqual(t, results[0].Summary.ReportID(), results[1].Summary.ReportID())
	assert.NotEqual(t, results[0].Path, results[1].Path)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	first, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(first), `name="status is 200"`)

	second, err := os.ReadFile(results[1].Path)
	require.NoError(t, err)
	assert.Contains(t, string(second), `name="status is OK"`)

	reports, err := store.ListReports(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestCheckTargets(t *testing.T) {
	err := checkTargets([]Result{
		{Source: "a.json", Path: "/out/r.xml"},
		{Source: "skipped.json", Skipped: true},
		{Source: "b.json", Path: "/out/r.xml"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.json and b.json")

	assert.NoError(t, checkTargets([]Result{
		{Source: "a.json", Path: "/out/a.xml"},
		{Source: "b.json", Path: "/out/b.xml"},
		{Source: "c.json", Skipped: true},
		{Source: "d.json", Skipped: true},
	}))
}

func TestConvertMarkdown(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	path := writeSummary(t, in, "petstore.json", petstoreSummary)

	c := New(testLogger(), Options{OutputDir: out, Markdown: true},
		export.NewLocalWriter(testLogger(), out, nil))

	results, err := c.Convert(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "newman-run-report.md"), results[0].MarkdownPath)

	data, err := os.ReadFile(results[0].MarkdownPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Collection Run: Petstore")
	assert.Contains(t, string(data), "| List pets | 1 | 0 |")
}

func TestConvertCollectionOverride(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	path := writeSummary(t, in, "petstore.json", petstoreSummary)

	folder := &collection.Item{ID: "f1", Name: "Pets", Items: []*collection.Item{
		{ID: "r1", Name: "List pets"},
	}}

	c := New(testLogger(), Options{
		OutputDir:  out,
		Collection: collection.New("8cec1fab-aaaa", "Petstore v2", folder),
	}, export.NewLocalWriter(testLogger(), out, nil))

	results, err := c.Convert(context.Background(), []string{path})
	require.NoError(t, err)

	data, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testsuite name="Pets / List pets"`)
	assert.Contains(t, string(data), `classname="PetsListPets"`)
}

func TestConvertSkipsSummaryWithoutRun(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	path := writeSummary(t, in, "empty.json", `{"collection": {"info": {"name": "Empty"}}}`)

	c := New(testLogger(), Options{OutputDir: out}, export.NewLocalWriter(testLogger(), out, nil))

	results, err := c.Convert(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Empty(t, results[0].Path)
	assert.NoFileExists(t, filepath.Join(out, "newman-run-report.xml"))
}

func TestConvertErrors(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	good := writeSummary(t, in, "petstore.json", petstoreSummary)
	bad := writeSummary(t, in, "bad.json", "{")

	tests := []struct {
		name    string
		opts    Options
		paths   []string
		wantErr string
	}{
		{
			name:    "no summaries",
			opts:    Options{OutputDir: out},
			wantErr: "no run summaries given",
		},
		{
			name:    "export path with many summaries",
			opts:    Options{OutputDir: out, ExportPath: filepath.Join(out, "x.xml")},
			paths:   []string{good, good},
			wantErr: "single summary",
		},
		{
			name:    "summary given twice",
			opts:    Options{OutputDir: out},
			paths:   []string{good, in + "/./petstore.json"},
			wantErr: "given twice",
		},
		{
			name:    "invalid summary",
			opts:    Options{OutputDir: out},
			paths:   []string{good, bad},
			wantErr: "converting " + bad,
		},
		{
			name:    "missing summary",
			opts:    Options{OutputDir: out},
			paths:   []string{filepath.Join(in, "missing.json")},
			wantErr: "opening run summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testLogger(), tt.opts, export.NewLocalWriter(testLogger(), out, nil))

			_, err := c.Convert(context.Background(), tt.paths)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
