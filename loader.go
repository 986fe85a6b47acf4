package confscope

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-confscope/layering"
	"github.com/goliatone/go-confscope/pkg/activity"
	"github.com/goliatone/go-confscope/pkg/source"
)

// Loader discovers fragments, classifies them and installs them into a
// Catalog. A load either installs every slot or none.
type Loader struct {
	source     source.Source
	classifier Classifier
	cfg        config
	emitter    *activity.Emitter
}

// NewLoader returns a Loader reading src and classifying with classifier.
func NewLoader(src source.Source, classifier Classifier, opts ...Option) *Loader {
	cfg := applyOptions(opts)
	return &Loader{
		source:     src,
		classifier: classifier,
		cfg:        cfg,
		emitter:    cfg.emitter(),
	}
}

// Load builds a catalog from src in one call.
func Load(ctx context.Context, src source.Source, classifier Classifier, opts ...Option) (*Catalog, error) {
	return NewLoader(src, classifier, opts...).Load(ctx)
}

type typeGroup struct {
	name      string
	fragments []source.Fragment
}

type typePlan struct {
	group typeGroup
	slots []Slot
}

// Load runs discovery, both classification passes for every type and the
// final installation.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	if l.source == nil {
		return nil, ErrNoSource
	}
	if l.classifier == nil {
		return nil, ErrNoClassifier
	}

	start := time.Now()
	loadID := uuid.New().String()
	logger := l.cfg.logger.With(slog.String("load_id", loadID))
	ctx, span := l.cfg.tracer().Start(ctx, "confscope.Load",
		trace.WithAttributes(attribute.String("confscope.load_id", loadID)))
	defer span.End()

	catalog, plans, err := l.load(ctx, logger, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("configuration load failed", slog.String("error", err.Error()))
		l.emit(ctx, logger, activity.BuildLoadFailedEvent(loadID, err))
		return nil, err
	}

	l.cfg.metrics.observeLoad(time.Since(start).Seconds())
	for _, plan := range plans {
		registry, _ := catalog.Lookup(plan.group.name)
		_, hasDefault := registry.GetDefault()
		l.emit(ctx, logger, activity.BuildTypeLoadedEvent(activity.TypeLoadedInput{
			LoadID:     loadID,
			Type:       plan.group.name,
			Fragments:  len(plan.group.fragments),
			IDs:        registry.IDs(),
			Modifiers:  registry.Modifiers(),
			HasDefault: hasDefault,
		}))
	}
	logger.Info("configuration loaded",
		slog.Int("types", len(plans)),
		slog.Duration("duration", time.Since(start)))
	return catalog, nil
}

func (l *Loader) load(ctx context.Context, logger *slog.Logger, span trace.Span) (*Catalog, []typePlan, error) {
	fragments, err := l.source.Fragments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("confscope: discover fragments: %w", err)
	}
	span.SetAttributes(attribute.Int("confscope.fragments", len(fragments)))

	groups := groupByType(fragments, logger)
	plans := make([]typePlan, 0, len(groups))
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		modifierSlots, err := ModifierPass(group.name, group.fragments, l.classifier)
		if err != nil {
			return nil, nil, err
		}
		idSlots, err := IDPass(group.name, group.fragments, l.classifier)
		if err != nil {
			return nil, nil, err
		}
		plans = append(plans, typePlan{
			group: group,
			slots: append(modifierSlots, idSlots...),
		})
	}

	catalog := l.cfg.catalog
	if catalog == nil {
		catalog = NewCatalog()
	}
	if err := precheck(catalog, plans); err != nil {
		return nil, nil, err
	}

	for _, plan := range plans {
		registry := catalog.Registry(plan.group.name)
		for _, slot := range plan.slots {
			if err := install(registry, slot); err != nil {
				return nil, nil, err
			}
			l.cfg.metrics.observeSlot(slot.Type, slot.Level)
			logger.Debug("registered configuration slot",
				slog.String("type", slot.Type),
				slog.String("level", slot.Level.String()),
				slog.String("key", slot.Key),
				slog.String("source", slot.Source))
		}
		l.cfg.metrics.observeFragments(plan.group.name, len(plan.group.fragments))
		span.AddEvent("type loaded", trace.WithAttributes(
			attribute.String("confscope.type", plan.group.name),
			attribute.Int("confscope.fragments", len(plan.group.fragments)),
			attribute.Int("confscope.slots", len(plan.slots)),
		))
		logger.Info("registered configuration type",
			slog.String("type", plan.group.name),
			slog.Int("fragments", len(plan.group.fragments)),
			slog.Int("slots", len(plan.slots)))
	}
	return catalog, plans, nil
}

// groupByType buckets fragments by root key, keeping the order in which
// types and fragments were discovered. Empty fragments have no root key and
// are skipped.
func groupByType(fragments []source.Fragment, logger *slog.Logger) []typeGroup {
	index := make(map[string]int)
	var groups []typeGroup
	for _, fragment := range fragments {
		root, ok := fragment.Tree.RootKey()
		if !ok {
			logger.Debug("skipping empty fragment", slog.String("source", fragment.Path))
			continue
		}
		i, seen := index[root]
		if !seen {
			i = len(groups)
			index[root] = i
			groups = append(groups, typeGroup{name: root})
		}
		groups[i].fragments = append(groups[i].fragments, fragment)
	}
	return groups
}

// precheck rejects slots that collide with entries already in a reused
// catalog, before anything is installed.
func precheck(catalog *Catalog, plans []typePlan) error {
	for _, plan := range plans {
		registry, ok := catalog.Lookup(plan.group.name)
		if !ok {
			continue
		}
		for _, slot := range plan.slots {
			if existing, taken := registry.Get(slot.Level, slot.Key); taken {
				return &DuplicateError{
					Type:     slot.Type,
					Level:    slot.Level,
					Key:      slot.Key,
					Source:   slot.Source,
					Previous: existing.Source(),
				}
			}
		}
	}
	return nil
}

func install(registry *TypeRegistry, slot Slot) error {
	entry := NewEntry(slot.Tree, slot.Source)
	switch slot.Level {
	case layering.LevelID:
		return registry.AddByID(slot.Key, entry)
	case layering.LevelModifier:
		return registry.AddByModifier(slot.Key, entry)
	case layering.LevelDefault:
		return registry.AddDefault(entry)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownLevel, slot.Level)
	}
}

func (l *Loader) emit(ctx context.Context, logger *slog.Logger, event activity.Event) {
	if err := l.emitter.Emit(ctx, event); err != nil {
		logger.Warn("activity hook failed",
			slog.String("verb", event.Verb),
			slog.String("error", err.Error()))
	}
}
