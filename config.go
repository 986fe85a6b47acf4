package confscope

import (
	"io"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-confscope/pkg/activity"
)

const instrumentationName = "github.com/goliatone/go-confscope"

// Option configures a Loader or a Resolver.
type Option func(*config)

type config struct {
	logger         *slog.Logger
	catalog        *Catalog
	activityHooks  activity.Hooks
	activityConfig activity.Config
	metrics        *Metrics
	tracerProvider trace.TracerProvider
}

func applyOptions(opts []Option) config {
	cfg := config{
		activityConfig: activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	return cfg
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithCatalog makes the loader install into catalog instead of a fresh one.
// Slots already present in catalog count as duplicates.
func WithCatalog(catalog *Catalog) Option {
	return func(cfg *config) {
		cfg.catalog = catalog
	}
}

// WithActivityHooks attaches activity hooks. Hooks are cloned and nil
// entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig replaces the activity settings. Enabled must be set
// for events to be emitted.
func WithActivityConfig(activityConfig activity.Config) Option {
	return func(cfg *config) {
		cfg.activityConfig = activityConfig
	}
}

// WithMetrics records load and resolution counters.
func WithMetrics(metrics *Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = metrics
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The global
// provider is used otherwise.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = provider
	}
}

func (cfg config) emitter() *activity.Emitter {
	if len(cfg.activityHooks) == 0 {
		return nil
	}
	return activity.NewEmitter(cfg.activityHooks, cfg.activityConfig)
}

func (cfg config) tracer() trace.Tracer {
	return cfg.tracerProvider.Tracer(instrumentationName)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	normalized := slices.DeleteFunc(slices.Clone(hooks), func(hook activity.ActivityHook) bool {
		return hook == nil
	})
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}
