package index

import (
	"time"

	"github.com/ethpandaops/junitoor/pkg/export"
)

// Report is a single indexed JUnit report.
type Report struct {
	ID             uint   `gorm:"primaryKey" json:"-"`
	ReportID       string `gorm:"not null;uniqueIndex" json:"id"`
	CollectionID   string `gorm:"index" json:"collection_id"`
	CollectionName string `json:"collection_name"`
	Timestamp      int64  `json:"timestamp"`

	// Denormalized report totals.
	Suites   int     `json:"suites"`
	Tests    int     `json:"tests"`
	Failures int     `json:"failures"`
	Errors   int     `json:"errors"`
	Time     float64 `json:"time"`

	Path        string `json:"path"`
	UploadedKey string `json:"uploaded_key,omitempty"`

	// Host the report was generated on.
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os,omitempty"`
	Platform      string `json:"platform,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`

	IndexedAt time.Time `json:"indexed_at"`
}

// NewReport builds an index row from an export summary.
func NewReport(s export.Summary, path, uploadedKey string, host Host) *Report {
	r := &Report{
		ReportID:       s.ReportID(),
		CollectionID:   s.CollectionID,
		CollectionName: s.CollectionName,
		Suites:         s.Suites,
		Tests:          s.Tests,
		Failures:       s.Failures,
		Errors:         s.Errors,
		Time:           s.Time,
		Path:           path,
		UploadedKey:    uploadedKey,
		Hostname:       host.Hostname,
		OS:             host.OS,
		Platform:       host.Platform,
		KernelVersion:  host.KernelVersion,
	}

	if !s.StartedAt.IsZero() {
		r.Timestamp = s.StartedAt.Unix()
	}

	return r
}
