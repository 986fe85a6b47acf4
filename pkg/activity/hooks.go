package activity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// ErrInvalidEvent is returned by Hooks.Notify for events missing a verb,
// object type or object ID.
var ErrInvalidEvent = errors.New("activity: invalid event")

// Event describes a catalog lifecycle occurrence. IDs are plain strings;
// sinks decide how to interpret them.
type Event struct {
	Verb       string
	ActorID    string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Normalize returns a copy with trimmed identifiers, detached metadata and
// a timestamp.
func (e Event) Normalize() Event {
	out := e
	for _, field := range []*string{&out.Verb, &out.ActorID, &out.TenantID, &out.ObjectType, &out.ObjectID, &out.Channel} {
		*field = strings.TrimSpace(*field)
	}
	if len(e.Metadata) > 0 {
		out.Metadata = maps.Clone(e.Metadata)
	} else {
		out.Metadata = nil
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

// Validate reports the required fields that are blank.
func (e Event) Validate() error {
	var missing []string
	if strings.TrimSpace(e.Verb) == "" {
		missing = append(missing, "verb")
	}
	if strings.TrimSpace(e.ObjectType) == "" {
		missing = append(missing, "object type")
	}
	if strings.TrimSpace(e.ObjectID) == "" {
		missing = append(missing, "object id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidEvent, strings.Join(missing, ", "))
	}
	return nil
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify implements ActivityHook.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans an event out to several hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify validates and normalizes event, then delivers it to every hook.
// Every hook runs even when an earlier one fails; failures are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	event = event.Normalize()
	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
