package confscope

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError reports a failed compile or evaluation together with the
// expression and, when known, the type and fragment it ran against.
type EvaluationError struct {
	Engine string
	Expr   string
	Type   string
	Source string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "confscope: %s evaluator", e.Engine)
	if e.Expr == "" {
		b.WriteString(" on empty expression")
	} else {
		fmt.Fprintf(&b, " on %q", e.Expr)
	}
	switch {
	case e.Type != "" && e.Source != "":
		fmt.Fprintf(&b, " (type %s, source %s)", e.Type, e.Source)
	case e.Type != "":
		fmt.Fprintf(&b, " (type %s)", e.Type)
	case e.Source != "":
		fmt.Fprintf(&b, " (source %s)", e.Source)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError prefixes engine-level failures that carry no
// expression. Errors already owned by this package pass through.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "confscope:") {
		return err
	}
	return fmt.Errorf("confscope: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches the expression and rule context to err. An
// existing EvaluationError only has its blank fields filled.
func wrapEvaluationError(engine, expr string, ctx RuleContext, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{
			Engine: engine,
			Expr:   expr,
			Type:   ctx.Type,
			Source: ctx.Source,
			Err:    err,
		}
	}
	if evalErr.Engine == "" {
		evalErr.Engine = engine
	}
	if evalErr.Expr == "" {
		evalErr.Expr = expr
	}
	if evalErr.Type == "" {
		evalErr.Type = ctx.Type
	}
	if evalErr.Source == "" {
		evalErr.Source = ctx.Source
	}
	return evalErr
}
