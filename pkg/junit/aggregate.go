package junit

import (
	"strings"

	"github.com/ethpandaops/junitoor/pkg/collection"
	"github.com/ethpandaops/junitoor/pkg/run"
)

// suiteAccumulator holds the running counters of one item's executions.
type suiteAccumulator struct {
	errors      int
	failures    int
	tests       int
	times       []float64
	diagnostics []string

	// names keeps assertion names in first-seen order.
	names    []string
	failedBy map[string][]*run.ErrorInfo
}

// accumulate folds the executions of one item, in run order.
func accumulate(executions []*run.Execution) suiteAccumulator {
	acc := suiteAccumulator{
		times:    make([]float64, 0, len(executions)),
		failedBy: make(map[string][]*run.ErrorInfo, 8),
	}

	for _, exec := range executions {
		if text, n := executionDiagnostic(exec); n > 0 {
			acc.errors += n
			acc.diagnostics = append(acc.diagnostics, text)
		}

		for _, assertion := range exec.Assertions {
			name := assertion.Assertion

			if _, seen := acc.failedBy[name]; !seen {
				acc.names = append(acc.names, name)
				acc.failedBy[name] = nil
			}

			if assertion.Failed() {
				acc.failures++
				acc.failedBy[name] = append(acc.failedBy[name], assertion.Error)
			}
		}

		acc.tests = len(exec.Assertions)
		acc.times = append(acc.times, float64(exec.ResponseTimeMs())/1000)
	}

	return acc
}

// total returns the sum of execution times in seconds.
func (a *suiteAccumulator) total() float64 {
	var sum float64
	for _, t := range a.times {
		sum += t
	}

	return sum
}

// mean returns the mean execution time in seconds.
func (a *suiteAccumulator) mean() float64 {
	if len(a.times) == 0 {
		return 0
	}

	return a.total() / float64(len(a.times))
}

// last returns the time of the last execution in seconds.
func (a *suiteAccumulator) last() float64 {
	if len(a.times) == 0 {
		return 0
	}

	return a.times[len(a.times)-1]
}

// suiteParams carries report-wide values shared by every suite.
type suiteParams struct {
	collection *collection.Collection
	separator  string
	timestamp  string
}

// aggregate builds the suite of one item. It returns false when the item
// is not part of the collection, in which case its executions are dropped.
// The second return value is the item's contribution to the report time.
func aggregate(itemID string, executions []*run.Execution, p suiteParams) (*Suite, float64, bool) {
	item := p.collection.Find(itemID)
	if item == nil {
		return nil, 0, false
	}

	acc := accumulate(executions)

	suite := &Suite{
		ID:        item.ID,
		Timestamp: p.timestamp,
		Tests:     acc.tests,
		Failures:  acc.failures,
		Errors:    acc.errors,
		Time:      formatSeconds(acc.mean()),
		TestCases: make([]*TestCase, 0, len(acc.names)),
	}

	fullName, ok := collection.FullName(item, p.separator)
	if ok {
		suite.Name = &fullName
	}

	if len(acc.diagnostics) > 0 {
		suite.SystemErr = &SystemErr{Text: xmlSafe(strings.Join(acc.diagnostics, ""))}
	}

	className := ClassName(fullName)
	if className == "" {
		className = ClassName(p.collection.Name)
	}

	caseTime := formatSeconds(acc.last())

	for _, name := range acc.names {
		failures := acc.failedBy[name]

		suite.TestCases = append(suite.TestCases, &TestCase{
			Name:      name,
			Time:      caseTime,
			ClassName: className,
			Failure:   newFailure(p.collection, fullName, name, failures),
			Failures:  failures,
		})
	}

	return suite, acc.total(), true
}
