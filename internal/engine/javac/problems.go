package javac

import (
	"fmt"

	"jjsdev/internal/shared/treelog"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Problem is one diagnostic the front end reported for a unit.
type Problem struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
}

func (p Problem) IsError() bool { return p.Severity == SeverityError }

func (p Problem) String() string {
	return fmt.Sprintf("Line %d: %s", p.Line, p.Message)
}

func hasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.IsError() {
			return true
		}
	}
	return false
}

// JsniMethod is the JavaScript body of one native method.
type JsniMethod struct {
	// Name is the Java method name; Signature its "name(params)ret" descriptor.
	Name      string
	Signature string
	Params    []string
	Body      string
	Line      int
}

// ReportErrors logs the problems of an error unit and reports whether the
// unit had errors. With suppress set the report goes to TRACE, so a later
// pass can decide whether the errors still matter.
func ReportErrors(logger *treelog.Logger, unit CompilationUnit, suppress bool) bool {
	if !unit.IsError() {
		return false
	}
	level := treelog.Error
	if suppress {
		level = treelog.Trace
	}
	if !logger.IsLoggable(level) {
		return true
	}
	branch := logger.Branch(level, fmt.Sprintf("Errors in '%s'", unit.ResourceLocation()))
	for _, p := range unit.Problems() {
		childLevel := level
		if !p.IsError() && !suppress {
			childLevel = treelog.Warn
		}
		branch.Log(childLevel, p.String())
	}
	return true
}

func suppressedSummary(count int) string {
	noun := "unit"
	if count > 1 {
		noun = "units"
	}
	return fmt.Sprintf("Ignored %d %s with compilation errors in first pass.\n"+
		"Compile with -strict or with -logLevel set to TRACE or DEBUG to see all errors.", count, noun)
}
