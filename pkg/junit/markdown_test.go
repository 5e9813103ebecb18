package junit

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethpandaops/junitoor/pkg/run"
	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "sub-second", duration: 250 * time.Millisecond, expected: "250ms"},
		{name: "seconds only", duration: 45 * time.Second, expected: "45s"},
		{name: "minutes and seconds", duration: 10*time.Minute + 8*time.Second, expected: "10m 8s"},
		{name: "hours minutes seconds", duration: 2*time.Hour + 30*time.Minute + 15*time.Second, expected: "2h 30m 15s"},
		{name: "zero", duration: 0, expected: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestGenerateMarkdown(t *testing.T) {
	doc := newTestReporter(Options{}).Build(newSummary(
		run.Execution{
			Item:       run.ItemRef{ID: "req-1"},
			Assertions: []run.Assertion{pass("status is 200"), fail("has pets", "expected 3 pets")},
			Response:   ms(250),
		},
		run.Execution{
			Item:         run.ItemRef{ID: "req-2"},
			RequestError: &run.ErrorInfo{Message: "ECONNREFUSED"},
			Response:     ms(1000),
		},
	))

	md := GenerateMarkdown(doc, "1710928800_col-1", MaxMarkdownChars)

	assert.True(t, strings.HasPrefix(md, "# Collection Run: My API!!\n\n"))
	assert.Contains(t, md, "| Started | 2024-03-20T10:00:00.123Z |\n")
	assert.Contains(t, md, "| Duration | 1s |\n")
	assert.Contains(t, md, "| Suites | Tests | Failures | Errors |\n")
	assert.Contains(t, md, "| 2 | 7 | 1 | 1 |\n")
	assert.Contains(t, md, "## Failed Suites\n")
	assert.Contains(t, md, "| Pets / Get pet | 0 | 1 |\n")
	assert.Contains(t, md, "| Pets / List pets | 1 | 0 |\n")
	assert.Less(t,
		strings.Index(md, "Pets / Get pet"),
		strings.Index(md, "Pets / List pets"),
		"failed suites are sorted by name",
	)
}

func TestGenerateMarkdownAllPassing(t *testing.T) {
	doc := newTestReporter(Options{}).Build(newSummary(
		run.Execution{
			Item:       run.ItemRef{ID: "req-1"},
			Assertions: []run.Assertion{pass("status is 200")},
			Response:   ms(100),
		},
	))

	md := GenerateMarkdown(doc, "r", 0)

	assert.NotContains(t, md, "Failed Suites")
	assert.Contains(t, md, "| Duration | 100ms |\n")
}

func TestGenerateMarkdownUntitled(t *testing.T) {
	md := GenerateMarkdown(&Document{Tests: "unknown"}, "0_unknown", 0)

	assert.True(t, strings.HasPrefix(md, "# Collection Run: 0_unknown\n\n"))
	assert.NotContains(t, md, "| Started |")
	assert.Contains(t, md, "| 0 | unknown | 0 | 0 |\n")
}

func TestGenerateMarkdownTruncates(t *testing.T) {
	doc := &Document{Name: "Big", Tests: "0"}

	for i := range 50 {
		name := fmt.Sprintf("Suite %02d | with a rather long name to fill the table", i)
		doc.Suites = append(doc.Suites, &Suite{Name: &name, Failures: 1})
	}

	md := GenerateMarkdown(doc, "r", 1500)

	assert.LessOrEqual(t, len(md), 1500)
	assert.Contains(t, md, "more failed suite(s) not shown (output truncated at 1500 chars)")
	assert.Contains(t, md, `Suite 00 \| with`)
	assert.NotContains(t, md, "Suite 49")
}
