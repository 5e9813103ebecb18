package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/ethpandaops/junitoor/pkg/fsutil"
	"github.com/sirupsen/logrus"
)

// Export is a finished report handed over for persistence.
type Export struct {
	// Name is the logical name of the reporter that produced the export.
	Name string
	// Default is the file name used when Path is empty.
	Default string
	// Path optionally overrides the output location.
	Path string
	// Content is the serialised report.
	Content []byte
	// Summary describes the report for indexing.
	Summary Summary
}

// Summary holds the headline numbers of an exported report.
type Summary struct {
	CollectionID   string
	CollectionName string
	StartedAt      time.Time
	Suites         int
	// Tests is the run's total assertion count, or the sum over suites
	// when the run does not report one.
	Tests          int
	Failures       int
	Errors         int
	Time           float64

	// Source is the run summary file the report was built from, if any.
	Source string
}

// ReportID returns a stable id for the report,
// "<unix start>_<collection id prefix>", suffixed with "_<source hash>"
// when the source file is known.
func (s Summary) ReportID() string {
	id := s.CollectionID
	if len(id) > 8 {
		id = id[:8]
	}

	if id == "" {
		id = "unknown"
	}

	var started int64
	if !s.StartedAt.IsZero() {
		started = s.StartedAt.Unix()
	}

	if s.Source == "" {
		return fmt.Sprintf("%d_%s", started, id)
	}

	sum := sha256.Sum256([]byte(s.Source))

	return fmt.Sprintf("%d_%s_%s", started, id, hex.EncodeToString(sum[:4]))
}

// Target resolves the output path: Path when set, otherwise Default in dir.
// Relative override paths are kept relative to the working directory.
func (e *Export) Target(dir string) string {
	if e.Path != "" {
		return e.Path
	}

	return filepath.Join(dir, e.Default)
}

// Size returns the human readable content size.
func (e *Export) Size() string {
	return units.HumanSize(float64(len(e.Content)))
}

// Writer persists exports.
type Writer interface {
	// Write stores the export and returns where it was written.
	Write(ctx context.Context, e *Export) (string, error)
}

// localWriter writes exports to the local filesystem.
type localWriter struct {
	log   logrus.FieldLogger
	dir   string
	owner *fsutil.OwnerConfig
}

// Ensure interface compliance.
var _ Writer = (*localWriter)(nil)

// NewLocalWriter creates a Writer storing exports under dir.
func NewLocalWriter(log logrus.FieldLogger, dir string, owner *fsutil.OwnerConfig) Writer {
	return &localWriter{
		log:   log.WithField("component", "local-writer"),
		dir:   dir,
		owner: owner,
	}
}

// Write creates the parent directory of the target and writes the content.
func (w *localWriter) Write(ctx context.Context, e *Export) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := e.Target(w.dir)

	if err := fsutil.MkdirAll(filepath.Dir(target), 0755, w.owner); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	if err := fsutil.WriteFile(target, e.Content, 0644, w.owner); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}

	w.log.WithFields(logrus.Fields{
		"path": target,
		"size": e.Size(),
	}).Info("Report written")

	return target, nil
}
