package confscope

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprEvaluator struct {
	evaluatorConfig
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang. Variables are
// untyped at compile time, so one program serves every snapshot.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	return &exprEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, emptyExpression("expr")
	}
	if cached, ok := e.cached("expr", expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return &exprRule{evaluator: e, expression: expression, program: program}, nil
		}
	}

	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			options = append(options, exprlang.Function(name, e.function(name)))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, RuleContext{}, err)
	}
	e.store("expr", expression, program)
	return &exprRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *exprEvaluator) function(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return e.call(name, arguments...)
	}
}

// env binds the rule context plus call(name, args...) when a registry is
// configured.
func (e *exprEvaluator) env(ctx RuleContext) map[string]any {
	env := ctx.bindings()
	if e.registry != nil {
		env["call"] = e.call
	}
	return env
}

type exprRule struct {
	evaluator  *exprEvaluator
	expression string
	program    *exprvm.Program
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaultMaps()
	result, err := exprlang.Run(r.program, r.evaluator.env(ctx))
	if err != nil {
		return nil, wrapEvaluationError("expr", r.expression, ctx, err)
	}
	return result, nil
}
