package junit

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethpandaops/junitoor/pkg/collection"
	"github.com/ethpandaops/junitoor/pkg/export"
	"github.com/ethpandaops/junitoor/pkg/run"
	"github.com/sirupsen/logrus"
)

const (
	// ExportName is the logical name of the junit export.
	ExportName = "junit-reporter"

	// DefaultFilename is the file name used when no export path is given.
	DefaultFilename = "newman-run-report.xml"

	// unknownTests is reported when the run did not count its tests.
	unknownTests = "unknown"

	// timestampLayout matches ISO-8601 with milliseconds in UTC.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Options configures a Reporter.
type Options struct {
	// Separator joins the segments of suite names. Empty selects
	// collection.DefaultSeparator.
	Separator string

	// ExportPath overrides the default output file name.
	ExportPath string
}

// Reporter turns run summaries into junit documents.
type Reporter struct {
	log  logrus.FieldLogger
	opts Options
}

// NewReporter creates a new Reporter.
func NewReporter(log logrus.FieldLogger, opts Options) *Reporter {
	return &Reporter{
		log:  log.WithField("component", "junit"),
		opts: opts,
	}
}

// Build aggregates the executions of a run into a document. Executions of
// items that are not in the collection are dropped.
func (r *Reporter) Build(summary *run.Summary) *Document {
	c := summary.Collection
	if c == nil {
		c = collection.New("", "")
	}

	doc := &Document{
		Name:  c.Name,
		Tests: unknownTests,
	}

	if summary.Run == nil {
		doc.Time = formatSeconds(0)

		return doc
	}

	if total := summary.Run.Stats.Tests.Total; total != nil {
		doc.Tests = strconv.Itoa(*total)
	}

	params := suiteParams{
		collection: c,
		separator:  r.opts.Separator,
		timestamp:  formatTimestamp(summary.Run.Timings.StartedAt()),
	}

	groups := Group(summary.Run.Executions)
	doc.Suites = make([]*Suite, 0, groups.Len())

	for _, id := range groups.IDs() {
		suite, elapsed, ok := aggregate(id, groups.Executions(id), params)
		if !ok {
			continue
		}

		doc.Suites = append(doc.Suites, suite)
		doc.TotalTime += elapsed
	}

	doc.Time = formatSeconds(doc.TotalTime)

	return doc
}

// Export builds and serialises the report of a finished run. It returns
// nil when the summary carries no run.
func (r *Reporter) Export(summary *run.Summary) (*export.Export, error) {
	if summary == nil || summary.Run == nil {
		r.log.Debug("Run summary has no executions, skipping report")

		return nil, nil
	}

	doc := r.Build(summary)

	content, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	totals := doc.Totals()

	tests := totals.Tests
	if total := summary.Run.Stats.Tests.Total; total != nil {
		tests = *total
	}

	r.log.WithFields(logrus.Fields{
		"collection": doc.Name,
		"suites":     totals.Suites,
		"failures":   totals.Failures,
		"errors":     totals.Errors,
		"time":       doc.Time,
	}).Debug("Built junit report")

	return &export.Export{
		Name:    ExportName,
		Default: DefaultFilename,
		Path:    r.opts.ExportPath,
		Content: content,
		Summary: export.Summary{
			CollectionID:   collectionID(summary.Collection),
			CollectionName: doc.Name,
			StartedAt:      summary.Run.Timings.StartedAt(),
			Suites:         totals.Suites,
			Tests:          tests,
			Failures:       totals.Failures,
			Errors:         totals.Errors,
			Time:           totals.Time,
		},
	}, nil
}

func collectionID(c *collection.Collection) string {
	if c == nil {
		return ""
	}

	return c.ID
}

// formatTimestamp renders t as ISO-8601, or "" when t is unknown.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(timestampLayout)
}
