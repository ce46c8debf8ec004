package condition

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes parse and evaluation failures.
type ErrorCode string

const (
	// ErrCodeUnmatchedLeft indicates an opening parenthesis was never closed.
	ErrCodeUnmatchedLeft ErrorCode = "unmatched_left"

	// ErrCodeUnmatchedRight indicates a closing parenthesis with no opener.
	ErrCodeUnmatchedRight ErrorCode = "unmatched_right"

	// ErrCodeUnknownCondition indicates a leaf matched neither the comparison
	// nor the membership form.
	ErrCodeUnknownCondition ErrorCode = "unknown_condition"

	// ErrCodeUndefinedVariable indicates the Env has no binding for a name.
	ErrCodeUndefinedVariable ErrorCode = "undefined_variable"

	// ErrCodeNotScalar indicates an ordering comparison against a set.
	ErrCodeNotScalar ErrorCode = "not_scalar"

	// ErrCodeUnknownOperator indicates a hand-built node with a bad operator.
	ErrCodeUnknownOperator ErrorCode = "unknown_operator"
)

// ParseError reports a malformed condition string.
type ParseError struct {
	Code     ErrorCode
	Message  string
	Text     string // the full input
	Fragment string // offending leaf, for unknown_condition
}

func (e *ParseError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("condition %q: %s: %q", e.Text, e.Message, e.Fragment)
	}
	return fmt.Sprintf("condition %q: %s", e.Text, e.Message)
}

// EvalError reports a condition that cannot be resolved against an Env.
// It always signals a contract violation between the data tables and the
// caller building the Env.
type EvalError struct {
	Code ErrorCode
	Var  string
	Op   string
}

func (e *EvalError) Error() string {
	switch e.Code {
	case ErrCodeUndefinedVariable:
		return fmt.Sprintf("undefined variable %q", e.Var)
	case ErrCodeNotScalar:
		return fmt.Sprintf("operator %s needs a scalar, %q is a set", e.Op, e.Var)
	default:
		return fmt.Sprintf("%s: %s (var=%s)", e.Code, e.Op, e.Var)
	}
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsUndefinedVariable reports whether err is or wraps an undefined variable
// EvalError.
func IsUndefinedVariable(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUndefinedVariable
	}
	return false
}
