package confscope

// EvaluatorOption configures any of the expression engines.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithProgramCache keeps compiled programs in cache. Keys carry the engine
// name, so several engines may share one cache.
func WithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes a copy of registry to expressions.
func WithFunctionRegistry(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// WithStandardFunctions exposes the tokens and lowercase helpers.
func WithStandardFunctions() EvaluatorOption {
	return WithFunctionRegistry(NewStandardFunctionRegistry())
}

func newEvaluatorConfig(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg evaluatorConfig) cached(engine, key string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(engine + ":" + key)
}

func (cfg evaluatorConfig) store(engine, key string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(engine+":"+key, program)
	}
}

func (cfg evaluatorConfig) call(name string, arguments ...any) (any, error) {
	return cfg.registry.Call(name, arguments...)
}
