package confscope

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-confscope/layering"
	"github.com/goliatone/go-confscope/pkg/activity"
)

// Consumer is anything that asks for configuration. Either value may be
// empty.
type Consumer interface {
	ConfigID() string
	Modifier() string
}

// Identity is a plain Consumer.
type Identity struct {
	id       string
	modifier string
}

// NewIdentity returns a consumer with the given ID and modifier.
func NewIdentity(id, modifier string) Identity {
	return Identity{id: id, modifier: modifier}
}

// ConfigID implements Consumer.
func (i Identity) ConfigID() string { return i.id }

// Modifier implements Consumer.
func (i Identity) Modifier() string { return i.modifier }

// Resolution is the outcome of a successful lookup.
type Resolution struct {
	Type  string
	Level layering.Level
	Key   string
	// Tree is the fully composed tree. It is shared and must not be
	// modified; Clone it first.
	Tree  *layering.Tree
	Entry *Entry
	// Composed is true only for the call that merged the fallbacks into
	// Entry.
	Composed bool
	// Layers lists the candidate levels for the consumer, strongest first.
	Layers []Provenance
}

// Resolver answers consumer lookups against a Catalog.
type Resolver struct {
	catalog *Catalog
	cfg     config
	emitter *activity.Emitter
}

// NewResolver returns a Resolver over catalog.
func NewResolver(catalog *Catalog, opts ...Option) *Resolver {
	cfg := applyOptions(opts)
	return &Resolver{
		catalog: catalog,
		cfg:     cfg,
		emitter: cfg.emitter(),
	}
}

// Resolve finds the configuration for consumer within typeName. ok is false
// when the type is unknown or holds no entry at any level.
func (r *Resolver) Resolve(typeName string, consumer Consumer) (Resolution, bool) {
	return r.ResolveContext(context.Background(), typeName, consumer)
}

// ResolveContext is Resolve with a context handed to activity hooks.
func (r *Resolver) ResolveContext(ctx context.Context, typeName string, consumer Consumer) (Resolution, bool) {
	if r.catalog == nil {
		r.cfg.metrics.observeMiss(typeName)
		return Resolution{Type: typeName}, false
	}
	registry, ok := r.catalog.Lookup(typeName)
	if !ok {
		r.cfg.metrics.observeMiss(typeName)
		r.cfg.logger.Debug("configuration type not found", slog.String("type", typeName))
		return Resolution{Type: typeName}, false
	}
	return r.resolve(ctx, registry, consumer)
}

// ResolveRegistry resolves consumer directly against registry.
func (r *Resolver) ResolveRegistry(registry *TypeRegistry, consumer Consumer) (Resolution, bool) {
	if registry == nil {
		return Resolution{}, false
	}
	return r.resolve(context.Background(), registry, consumer)
}

// ResolveWithTrace resolves consumer and reports where path's value came
// from. found is false when nothing resolved or the composed tree does not
// set path.
func (r *Resolver) ResolveWithTrace(typeName string, consumer Consumer, path string) (any, Trace, bool) {
	trace := Trace{Type: typeName, Path: path}
	resolution, ok := r.Resolve(typeName, consumer)
	if !ok {
		return nil, trace, false
	}
	registry, _ := r.catalog.Lookup(typeName)
	trace.Layers = tracePath(registry, resolution.Layers, path)
	trace.Value, trace.Found = resolution.Tree.Lookup(path)
	return trace.Value, trace, trace.Found
}

func (r *Resolver) resolve(ctx context.Context, registry *TypeRegistry, consumer Consumer) (Resolution, bool) {
	if consumer == nil {
		consumer = Identity{}
	}
	typeName := registry.Type()
	entry, level, key := lookup(registry, consumer)
	if entry == nil {
		r.cfg.metrics.observeMiss(typeName)
		r.cfg.logger.Debug("no configuration for consumer",
			slog.String("type", typeName),
			slog.String("id", consumer.ConfigID()),
			slog.String("modifier", consumer.Modifier()))
		return Resolution{Type: typeName}, false
	}

	composed := entry.composeOnce(func(e *Entry) {
		compose(registry, e, consumer, level)
	})
	r.cfg.metrics.observeResolution(typeName, level)
	r.cfg.logger.Debug("resolved configuration",
		slog.String("type", typeName),
		slog.String("level", level.String()),
		slog.String("key", key),
		slog.Bool("composed", composed))
	if composed {
		r.emit(ctx, activity.BuildEntryResolvedEvent(activity.EntryResolvedInput{
			Type:             typeName,
			Level:            level.String(),
			Key:              key,
			Source:           entry.Source(),
			ConsumerID:       consumer.ConfigID(),
			ConsumerModifier: consumer.Modifier(),
		}))
	}

	return Resolution{
		Type:     typeName,
		Level:    level,
		Key:      key,
		Tree:     entry.Tree(),
		Entry:    entry,
		Composed: composed,
		Layers:   chain(registry, consumer),
	}, true
}

// lookup tries the ID, then the modifier, then the default.
func lookup(registry *TypeRegistry, consumer Consumer) (*Entry, layering.Level, string) {
	if id := consumer.ConfigID(); id != "" {
		if entry, ok := registry.GetByID(id); ok {
			return entry, layering.LevelID, id
		}
	}
	if modifier := consumerModifier(consumer); modifier != "" {
		if entry, ok := registry.GetByModifier(modifier); ok {
			return entry, layering.LevelModifier, modifier
		}
	}
	if entry, ok := registry.GetDefault(); ok {
		return entry, layering.LevelDefault, DefaultModifier
	}
	return nil, layering.LevelUnknown, ""
}

// consumerModifier returns the consumer's modifier, treating DefaultModifier
// as absent so the default is only reached as the last fallback.
func consumerModifier(consumer Consumer) string {
	if modifier := consumer.Modifier(); modifier != DefaultModifier {
		return modifier
	}
	return ""
}

// compose merges the weaker levels into entry. It panics on a level it does
// not know; lookup never produces one.
func compose(registry *TypeRegistry, entry *Entry, consumer Consumer, level layering.Level) {
	switch level {
	case layering.LevelID:
		if modifier := consumerModifier(consumer); modifier != "" {
			if modifierEntry, ok := registry.GetByModifier(modifier); ok {
				entry.MergeWithSuper(modifierEntry)
			}
		}
		if defaultEntry, ok := registry.GetDefault(); ok {
			entry.MergeWithSuper(defaultEntry)
		}
	case layering.LevelModifier:
		if defaultEntry, ok := registry.GetDefault(); ok {
			entry.MergeWithSuper(defaultEntry)
		}
	case layering.LevelDefault:
	default:
		panic(fmt.Errorf("%w: %v", ErrUnknownLevel, level))
	}
}

func (r *Resolver) emit(ctx context.Context, event activity.Event) {
	if err := r.emitter.Emit(ctx, event); err != nil {
		r.cfg.logger.Warn("activity hook failed",
			slog.String("verb", event.Verb),
			slog.String("error", err.Error()))
	}
}
