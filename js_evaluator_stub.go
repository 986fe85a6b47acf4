//go:build !js_eval

package confscope

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator(...EvaluatorOption) Evaluator {
	return nil
}

func jsEngineName(Evaluator) string {
	return ""
}

func jsEvaluatorAvailable() bool {
	return false
}
