//go:build js_eval

package confscope

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	evaluatorConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja. Expressions are
// wrapped in a function body and evaluated in a fresh runtime per call.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	return &jsEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, emptyExpression("js")
	}
	if cached, ok := e.cached("js", expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return &jsRule{evaluator: e, expression: expression, program: program}, nil
		}
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, RuleContext{}, err)
	}
	e.store("js", expression, program)
	return &jsRule{evaluator: e, expression: expression, program: program}, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

// Evaluate runs in a new runtime; goja runtimes are not safe for concurrent
// use.
func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaultMaps()
	vm := goja.New()
	for key, value := range ctx.bindings() {
		if err := vm.Set(key, value); err != nil {
			return nil, wrapEvaluationError("js", r.expression, ctx, err)
		}
	}
	if r.evaluator.registry != nil {
		if err := vm.Set("call", r.evaluator.call); err != nil {
			return nil, wrapEvaluationError("js", r.expression, ctx, err)
		}
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError("js", r.expression, ctx, err)
	}
	return value.Export(), nil
}

func jsEngineName(e Evaluator) string {
	if _, ok := e.(*jsEvaluator); ok {
		return "js"
	}
	return ""
}

func jsEvaluatorAvailable() bool {
	return true
}
