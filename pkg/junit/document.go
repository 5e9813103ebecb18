package junit

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethpandaops/junitoor/pkg/run"
)

// FailureType is the type attribute of every assertion failure element.
const FailureType = "AssertionFailure"

// Document is the root testsuites element of a report.
type Document struct {
	XMLName xml.Name `xml:"testsuites"`
	Name    string   `xml:"name,attr"`
	Tests   string   `xml:"tests,attr"`
	Time    string   `xml:"time,attr"`
	Suites  []*Suite `xml:"testsuite"`

	// TotalTime is the sum of every execution time, in seconds.
	TotalTime float64 `xml:"-"`
}

// Suite aggregates every execution of one collection item.
type Suite struct {
	Name      *string     `xml:"name,attr"`
	ID        string      `xml:"id,attr"`
	Timestamp string      `xml:"timestamp,attr,omitempty"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Errors    int         `xml:"errors,attr"`
	Time      string      `xml:"time,attr"`
	SystemErr *SystemErr  `xml:"system-err"`
	TestCases []*TestCase `xml:"testcase"`
}

// FullName returns the resolved suite name, or "" when it is unresolved.
func (s *Suite) FullName() string {
	if s.Name == nil {
		return ""
	}

	return *s.Name
}

// SystemErr holds the diagnostics of request and script errors.
type SystemErr struct {
	Text string `xml:",cdata"`
}

// TestCase aggregates every outcome of one assertion name within a suite.
type TestCase struct {
	Name      string   `xml:"name,attr"`
	Time      string   `xml:"time,attr"`
	ClassName string   `xml:"classname,attr"`
	Failure   *Failure `xml:"failure"`

	// Failures holds every recorded failure for this assertion, in order.
	Failures []*run.ErrorInfo `xml:"-"`
}

// Failure renders the failures of a test case.
type Failure struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
	Body    string `xml:",cdata"`
}

// Totals are document-wide counters.
type Totals struct {
	Suites   int
	Tests    int
	Failures int
	Errors   int
	Time     float64
}

// Totals sums the suite counters of the document.
func (d *Document) Totals() Totals {
	t := Totals{Suites: len(d.Suites), Time: d.TotalTime}

	for _, s := range d.Suites {
		t.Tests += s.Tests
		t.Failures += s.Failures
		t.Errors += s.Errors
	}

	return t
}

// Marshal renders the document as indented XML with a declaration.
func (d *Document) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling junit document: %w", err)
	}

	body, err = d.selfCloseEmpty(body)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.Grow(len(xml.Header) + len(body) + 1)
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// selfCloseEmpty rewrites childless elements as <name .../>, a form
// encoding/xml never emits.
func (d *Document) selfCloseEmpty(body []byte) ([]byte, error) {
	if len(d.Suites) == 0 {
		return selfClose(body, "testsuites"), nil
	}

	start := xml.StartElement{Name: xml.Name{Local: "testsuite"}}

	for _, s := range d.Suites {
		if s.SystemErr != nil || len(s.TestCases) > 0 {
			continue
		}

		var buf bytes.Buffer
		if err := xml.NewEncoder(&buf).EncodeElement(s, start); err != nil {
			return nil, fmt.Errorf("marshaling junit suite %s: %w", s.ID, err)
		}

		body = bytes.Replace(body, buf.Bytes(), selfClose(buf.Bytes(), "testsuite"), 1)
	}

	return body, nil
}

// selfClose returns a copy of elem with its empty closing tag folded into
// the start tag.
func selfClose(elem []byte, name string) []byte {
	open, ok := bytes.CutSuffix(elem, []byte("></"+name+">"))
	if !ok {
		return elem
	}

	out := make([]byte, 0, len(open)+2)
	out = append(out, open...)

	return append(out, "/>"...)
}

// formatSeconds renders seconds with three decimals. Exact ties round
// away from zero, judged on the exact binary value of v.
func formatSeconds(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}

	r := new(big.Rat).SetFloat64(math.Abs(v))
	r.Mul(r, big.NewRat(1000, 1))
	r.Add(r, big.NewRat(1, 2))

	digits := new(big.Int).Quo(r.Num(), r.Denom()).String()
	if len(digits) < 4 {
		digits = strings.Repeat("0", 4-len(digits)) + digits
	}

	out := digits[:len(digits)-3] + "." + digits[len(digits)-3:]
	if math.Signbit(v) && v != 0 {
		out = "-" + out
	}

	return out
}
