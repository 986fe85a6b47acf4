package confscope

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	ErrFunctionNotRegistered = errors.New("confscope: function not registered")
	ErrFunctionExists        = errors.New("confscope: function already registered")
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by lower-cased name. Each
// evaluator takes its own clone, so later registrations do not leak into
// evaluators that were already built.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register adds fn under the case-folded name. Names are unique ignoring
// case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return fmt.Errorf("confscope: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("confscope: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("%w: %q", ErrFunctionExists, name)
	}
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a registry holding the same functions. A nil registry
// clones to nil.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	functions := maps.Clone(r.functions)
	if functions == nil {
		functions = map[string]Function{}
	}
	return &FunctionRegistry{functions: functions}
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.functions[strings.ToLower(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotRegistered, name)
	}
	return fn(args...)
}

// Names returns the registered names, lower-cased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.functions))
}

// NewStandardFunctionRegistry returns a registry preloaded with the helpers
// classification expressions commonly need:
//
//	tokens(value, sep)  splits a string and trims each element, dropping blanks
//	lowercase(value)    lower-cases a string
func NewStandardFunctionRegistry() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("tokens", tokensFunction)
	_ = registry.Register("lowercase", lowercaseFunction)
	return registry
}

func tokensFunction(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("confscope: tokens expects 2 arguments, got %d", len(args))
	}
	value, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("confscope: tokens value must be string, got %T", args[0])
	}
	sep, ok := args[1].(string)
	if !ok || sep == "" {
		return nil, fmt.Errorf("confscope: tokens separator must be a non-empty string")
	}
	out := make([]any, 0)
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

func lowercaseFunction(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("confscope: lowercase expects 1 argument, got %d", len(args))
	}
	value, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("confscope: lowercase value must be string, got %T", args[0])
	}
	return strings.ToLower(value), nil
}
