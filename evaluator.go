package confscope

import (
	"errors"
	"fmt"
)

// ErrNoEvaluator reports an expression classifier built without an engine.
var ErrNoEvaluator = errors.New("confscope: evaluator not configured")

// RuleContext carries the inputs an expression sees while classifying a
// fragment. Snapshot keys are bound as top level variables next to
// configType, configSource, args and metadata.
type RuleContext struct {
	Snapshot map[string]any
	Type     string
	Source   string
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// bindings returns the variables shared by every engine.
func (ctx RuleContext) bindings() map[string]any {
	env := map[string]any{
		"configType":   ctx.Type,
		"configSource": ctx.Source,
		"args":         ctx.Args,
		"metadata":     ctx.Metadata,
	}
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := jsEngineName(e); name != "" {
			return name
		}
		return "custom"
	}
}

func emptyExpression(engine string) error {
	return wrapEvaluatorError(engine, fmt.Errorf("expression must not be empty"))
}
