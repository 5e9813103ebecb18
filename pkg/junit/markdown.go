package junit

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxMarkdownChars keeps summaries within GitHub's step summary limit.
const MaxMarkdownChars = 65000

type failedSuite struct {
	Name     string
	Failures int
	Errors   int
}

// GenerateMarkdown renders a markdown summary of the document. The output
// is capped at maxChars characters; zero disables the cap.
func GenerateMarkdown(doc *Document, reportID string, maxChars int) string {
	var sb strings.Builder

	sb.Grow(4096)

	writeTitle(&sb, doc, reportID)
	writeOverview(&sb, doc)
	writeTestResults(&sb, doc.Totals(), doc.Tests)

	// Failed suites section is last so it is the one truncated.
	writeFailedSuites(&sb, collectFailedSuites(doc), maxChars)

	return sb.String()
}

func writeTitle(sb *strings.Builder, doc *Document, reportID string) {
	name := doc.Name
	if name == "" {
		name = reportID
	}

	fmt.Fprintf(sb, "# Collection Run: %s\n\n", escapeCell(name))
}

func writeOverview(sb *strings.Builder, doc *Document) {
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")

	if started := firstTimestamp(doc); started != "" {
		fmt.Fprintf(sb, "| Started | %s |\n", started)
	}

	fmt.Fprintf(sb, "| Duration | %s |\n",
		formatDuration(time.Duration(doc.TotalTime*float64(time.Second))))

	sb.WriteByte('\n')
}

func writeTestResults(sb *strings.Builder, totals Totals, tests string) {
	sb.WriteString("## Test Results\n\n")
	sb.WriteString("| Suites | Tests | Failures | Errors |\n")
	sb.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(sb, "| %d | %s | %d | %d |\n\n",
		totals.Suites, tests, totals.Failures, totals.Errors)
}

func writeFailedSuites(
	sb *strings.Builder,
	failed []failedSuite,
	maxChars int,
) {
	if len(failed) == 0 {
		return
	}

	sb.WriteString("## Failed Suites\n\n")
	sb.WriteString("| Suite | Failures | Errors |\n")
	sb.WriteString("|---|---|---|\n")

	// Reserve space for the truncation message.
	const reserveChars = 100

	for i, fs := range failed {
		row := fmt.Sprintf("| %s | %d | %d |\n",
			escapeCell(fs.Name), fs.Failures, fs.Errors)

		if maxChars > 0 && sb.Len()+len(row)+reserveChars > maxChars {
			fmt.Fprintf(sb,
				"\n*%d more failed suite(s) not shown "+
					"(output truncated at %d chars)*\n",
				len(failed)-i, maxChars)

			return
		}

		sb.WriteString(row)
	}
}

// collectFailedSuites returns suites with failures or errors, sorted by name.
func collectFailedSuites(doc *Document) []failedSuite {
	failed := make([]failedSuite, 0)

	for _, s := range doc.Suites {
		if s.Failures == 0 && s.Errors == 0 {
			continue
		}

		failed = append(failed, failedSuite{
			Name:     s.FullName(),
			Failures: s.Failures,
			Errors:   s.Errors,
		})
	}

	sort.SliceStable(failed, func(i, j int) bool {
		return failed[i].Name < failed[j].Name
	})

	return failed
}

func firstTimestamp(doc *Document) string {
	for _, s := range doc.Suites {
		if s.Timestamp != "" {
			return s.Timestamp
		}
	}

	return ""
}

// escapeCell keeps pipes and newlines from breaking a table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")

	return strings.ReplaceAll(s, "\n", " ")
}

// formatDuration formats a time.Duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}
