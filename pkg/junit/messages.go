package junit

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/junitoor/pkg/collection"
	"github.com/ethpandaops/junitoor/pkg/run"
)

// diagnosticDelimiter closes every block of a system-err diagnostic.
const diagnosticDelimiter = "\n---\n"

// executionDiagnostic formats the request and script errors of one
// execution. It returns the diagnostic text and the number of errors;
// the text is empty when the execution had no errors.
func executionDiagnostic(exec *run.Execution) (string, int) {
	var (
		b      strings.Builder
		errors int
	)

	fmt.Fprintf(&b, "Iteration: %d\n", exec.Cursor.Iteration)

	if exec.RequestError != nil {
		errors++

		b.WriteString("RequestError: " + exec.RequestError.StackOrMessage() + "\n")
	}

	b.WriteString(diagnosticDelimiter)

	for _, phase := range run.Phases {
		for _, result := range exec.ScriptResults(phase) {
			if result.Error == nil {
				continue
			}

			errors++

			b.WriteString(string(phase) + "Error: " + result.Error.StackOrMessage())
			b.WriteString(diagnosticDelimiter)
		}
	}

	if errors == 0 {
		return "", 0
	}

	return b.String(), errors
}

// failureBody formats the failure element body of a test case.
func failureBody(c *collection.Collection, requestName, assertion string, failures []*run.ErrorInfo) string {
	lines := []string{
		fmt.Sprintf("Failed %d times.", len(failures)),
		fmt.Sprintf("Collection JSON ID: %s.", c.ID),
		fmt.Sprintf("Collection name: %s.", c.Name),
		fmt.Sprintf("Request name: %s.", requestName),
		fmt.Sprintf("Test description: %s.", assertion),
	}

	if len(failures) > 0 {
		first := failures[0]
		lines = append(lines,
			fmt.Sprintf("Error message: %s.", first.Message),
			fmt.Sprintf("Stacktrace: %s.", first.Stack),
		)
	}

	return strings.Join(lines, "\n")
}

// newFailure builds the failure element for a test case, or nil when the
// assertion never failed.
func newFailure(c *collection.Collection, requestName, assertion string, failures []*run.ErrorInfo) *Failure {
	if len(failures) == 0 {
		return nil
	}

	return &Failure{
		Type:    FailureType,
		Message: failures[0].Message,
		Body:    xmlSafe(failureBody(c, requestName, assertion, failures)),
	}
}
