package confscope

import (
	"fmt"
	"time"

	"github.com/goliatone/go-confscope/layering"
)

// ExprClassifierOption configures an ExprClassifier.
type ExprClassifierOption func(*ExprClassifier)

// WithEvaluator selects the expression engine. The default is expr. A nil
// evaluator, such as NewJSEvaluator without the js_eval tag, makes
// NewExprClassifier fail with ErrNoEvaluator.
func WithEvaluator(evaluator Evaluator) ExprClassifierOption {
	return func(c *ExprClassifier) {
		c.evaluator = evaluator
		c.evaluatorSet = true
	}
}

// WithMaterializeFields sets the fields listed keys are written back to,
// relative to the type's root key.
func WithMaterializeFields(idField, modifierField string) ExprClassifierOption {
	return func(c *ExprClassifier) {
		if idField != "" {
			c.idField = idField
		}
		if modifierField != "" {
			c.modifierField = modifierField
		}
	}
}

// WithClassifierTypes restricts the classifier to the named types.
func WithClassifierTypes(types ...string) ExprClassifierOption {
	return func(c *ExprClassifier) {
		for _, name := range types {
			if name != "" {
				c.types[name] = struct{}{}
			}
		}
	}
}

// WithEvaluatorLogger records every expression evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) ExprClassifierOption {
	return func(c *ExprClassifier) {
		if logger == nil {
			c.logger = noopEvaluatorLogger{}
			return
		}
		c.logger = logger
	}
}

// WithRuleArgs exposes args to expressions as the args variable.
func WithRuleArgs(args map[string]any) ExprClassifierOption {
	return func(c *ExprClassifier) {
		c.args = args
	}
}

// ExprClassifier derives IDs and modifiers by evaluating expressions against
// the fragment. Each expression may yield nil, a string or a list of strings.
type ExprClassifier struct {
	idExpr        string
	modifierExpr  string
	idRule        CompiledRule
	modifierRule  CompiledRule
	evaluator     Evaluator
	evaluatorSet  bool
	idField       string
	modifierField string
	types         map[string]struct{}
	args          map[string]any
	logger        EvaluatorLogger
}

// NewExprClassifier compiles idExpr and modifierExpr up front. Either may be
// empty, in which case that side is never set.
func NewExprClassifier(idExpr, modifierExpr string, opts ...ExprClassifierOption) (*ExprClassifier, error) {
	c := &ExprClassifier{
		idExpr:        idExpr,
		modifierExpr:  modifierExpr,
		idField:       DefaultIDField,
		modifierField: DefaultModifierField,
		types:         make(map[string]struct{}),
		logger:        noopEvaluatorLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if !c.evaluatorSet {
		c.evaluator = NewExprEvaluator()
	}
	if c.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	var err error
	if idExpr != "" {
		if c.idRule, err = c.evaluator.Compile(idExpr); err != nil {
			return nil, err
		}
	}
	if modifierExpr != "" {
		if c.modifierRule, err = c.evaluator.Compile(modifierExpr); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Classify implements Classifier. configSource is bound to "".
func (c *ExprClassifier) Classify(typeName string, fragment *layering.Tree) (Classification, error) {
	return c.ClassifySource(typeName, "", fragment)
}

// ClassifySource implements SourceClassifier, binding path to configSource.
func (c *ExprClassifier) ClassifySource(typeName, path string, fragment *layering.Tree) (Classification, error) {
	if len(c.types) > 0 {
		if _, ok := c.types[typeName]; !ok {
			return nil, nil
		}
	}
	ctx := RuleContext{
		Snapshot: fragment.ToMap(),
		Type:     typeName,
		Source:   path,
		Args:     c.args,
	}.withDefaultMaps()

	idValue, err := c.evaluate(ctx, c.idExpr, c.idRule)
	if err != nil {
		return nil, err
	}
	modifierValue, err := c.evaluate(ctx, c.modifierExpr, c.modifierRule)
	if err != nil {
		return nil, err
	}
	classification, err := classificationFromValues(idValue, modifierValue, FieldMaterializer{
		Type:          typeName,
		IDField:       c.idField,
		ModifierField: c.modifierField,
	})
	if err != nil {
		return nil, fmt.Errorf("%s classifier: %w", evaluatorEngineName(c.evaluator), err)
	}
	return classification, nil
}

func (c *ExprClassifier) evaluate(ctx RuleContext, expr string, rule CompiledRule) (any, error) {
	if rule == nil {
		return nil, nil
	}
	start := time.Now()
	value, err := rule.Evaluate(ctx)
	engine := evaluatorEngineName(c.evaluator)
	err = wrapEvaluationError(engine, expr, ctx, err)
	c.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Type:     ctx.Type,
		Source:   ctx.Source,
		Duration: time.Since(start),
		Err:      err,
	})
	return value, err
}
