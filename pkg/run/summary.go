package run

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethpandaops/junitoor/pkg/collection"
)

// Phase identifies the script a script error was raised in.
type Phase string

const (
	// PhaseTestScript is the post-response test script.
	PhaseTestScript Phase = "testScript"
	// PhasePrerequestScript is the pre-request script.
	PhasePrerequestScript Phase = "prerequestScript"
)

// Phases lists script phases in the order their errors are reported.
var Phases = []Phase{PhaseTestScript, PhasePrerequestScript}

// Summary is the result of a collection run, as exported by the run engine.
type Summary struct {
	Collection *collection.Collection `json:"collection"`
	Run        *Run                   `json:"run"`
}

// Run holds the statistics, timings and executions of a run.
type Run struct {
	Stats      Stats       `json:"stats"`
	Timings    Timings     `json:"timings"`
	Executions []Execution `json:"executions"`
}

// Stats contains the aggregate counters reported by the run engine.
type Stats struct {
	Tests Counter `json:"tests"`
}

// Counter is a total/failed pair. Total is nil when the engine did not report it.
type Counter struct {
	Total   *int `json:"total,omitempty"`
	Pending int  `json:"pending,omitempty"`
	Failed  int  `json:"failed,omitempty"`
}

// Timings contains run timestamps in milliseconds since the epoch.
type Timings struct {
	Started   int64 `json:"started,omitempty"`
	Completed int64 `json:"completed,omitempty"`
}

// StartedAt returns the run start time, or the zero time when unknown.
func (t Timings) StartedAt() time.Time {
	if t.Started <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(t.Started).UTC()
}

// Execution is a single invocation of a collection item.
type Execution struct {
	ID               string         `json:"id,omitempty"`
	Item             ItemRef        `json:"item"`
	Cursor           Cursor         `json:"cursor"`
	RequestError     *ErrorInfo     `json:"requestError,omitempty"`
	PrerequestScript []ScriptResult `json:"prerequestScript,omitempty"`
	TestScript       []ScriptResult `json:"testScript,omitempty"`
	Assertions       []Assertion    `json:"assertions,omitempty"`
	Response         *Response      `json:"response,omitempty"`
}

// ItemRef references the collection item an execution belongs to.
type ItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Cursor locates an execution within the run.
type Cursor struct {
	Iteration int `json:"iteration"`
	Position  int `json:"position,omitempty"`
}

// Response carries the timing of the HTTP response.
type Response struct {
	Code         int    `json:"code,omitempty"`
	ResponseTime *int64 `json:"responseTime,omitempty"`
}

// ErrorInfo describes a captured error.
type ErrorInfo struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// StackOrMessage returns the stack trace, falling back to the message.
func (e *ErrorInfo) StackOrMessage() string {
	if e == nil {
		return ""
	}

	if e.Stack != "" {
		return e.Stack
	}

	return e.Message
}

// ScriptResult is the outcome of one script run; Error is nil on success.
type ScriptResult struct {
	Error *ErrorInfo `json:"error,omitempty"`
}

// Assertion is a named check performed during an execution.
type Assertion struct {
	Assertion string     `json:"assertion"`
	Skipped   bool       `json:"skipped,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

// Failed reports whether the assertion carries an error.
func (a Assertion) Failed() bool {
	return a.Error != nil
}

// ItemID returns the id of the executed item.
func (e *Execution) ItemID() string {
	return e.Item.ID
}

// ResponseTimeMs returns the response time, or 0 when it was not recorded.
func (e *Execution) ResponseTimeMs() int64 {
	if e.Response == nil || e.Response.ResponseTime == nil {
		return 0
	}

	return *e.Response.ResponseTime
}

// ScriptResults returns the script results recorded for phase.
func (e *Execution) ScriptResults(phase Phase) []ScriptResult {
	switch phase {
	case PhaseTestScript:
		return e.TestScript
	case PhasePrerequestScript:
		return e.PrerequestScript
	default:
		return nil
	}
}

// Decode reads a run summary from r.
func Decode(r io.Reader) (*Summary, error) {
	var s Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding run summary: %w", err)
	}

	return &s, nil
}

// Load reads a run summary file.
func Load(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run summary: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}
