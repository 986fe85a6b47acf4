package confscope

import (
	"errors"
	"testing"
)

func TestEvaluationErrorMessages(t *testing.T) {
	base := errors.New("boom")
	cases := []struct {
		name string
		err  *EvaluationError
		want string
	}{
		{
			name: "full",
			err:  &EvaluationError{Engine: "expr", Expr: "service.serviceId", Type: "service", Source: "a.yaml", Err: base},
			want: `confscope: expr evaluator on "service.serviceId" (type service, source a.yaml): boom`,
		},
		{
			name: "type only",
			err:  &EvaluationError{Engine: "cel", Expr: "x", Type: "db", Err: base},
			want: `confscope: cel evaluator on "x" (type db): boom`,
		},
		{
			name: "no expression",
			err:  &EvaluationError{Engine: "js", Err: base},
			want: `confscope: js evaluator on empty expression: boom`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "service.serviceId", RuleContext{Type: "service", Source: "a.yaml"}, base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "service.serviceId" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if evalErr.Type != "service" || evalErr.Source != "a.yaml" {
		t.Fatalf("expected rule context metadata, got %+v", evalErr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if wrapEvaluationError("expr", "x", RuleContext{}, nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}

func TestWrapEvaluationErrorFillsBlanksOnly(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Type:   "service",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", RuleContext{Type: "db", Source: "b.yaml"}, existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" || existing.Type != "service" {
		t.Fatalf("existing fields should not be overwritten, got %+v", existing)
	}
	if existing.Expr != "rule" || existing.Source != "b.yaml" {
		t.Fatalf("blank fields should be filled, got %+v", existing)
	}
}

func TestWrapEvaluatorErrorKeepsPackageErrors(t *testing.T) {
	prefixed := errors.New("confscope: already described")
	if got := wrapEvaluatorError("cel", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error to pass through, got %v", got)
	}
	evalErr := &EvaluationError{Engine: "cel", Err: errors.New("x")}
	if got := wrapEvaluatorError("cel", evalErr); got != error(evalErr) {
		t.Fatalf("expected EvaluationError to pass through, got %v", got)
	}

	got := wrapEvaluatorError("cel", errors.New("raw"))
	if got.Error() != "confscope: cel evaluator: raw" {
		t.Fatalf("unexpected message %q", got.Error())
	}
	if wrapEvaluatorError("cel", nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}
