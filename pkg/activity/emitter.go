package activity

import (
	"context"
	"slices"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "confscope"

// Config sets the emitter switch and the identity stamped on events that
// do not carry their own.
type Config struct {
	Enabled  bool
	Channel  string
	ActorID  string
	TenantID string
}

// Emitter delivers events to hooks after filling in the configured
// defaults. A nil Emitter emits nothing.
type Emitter struct {
	hooks    Hooks
	defaults Event
}

// NewEmitter returns an emitter over the non-nil hooks. It is disabled when
// cfg.Enabled is false or no hooks remain.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{
		defaults: Event{
			Channel:  strings.TrimSpace(cfg.Channel),
			ActorID:  strings.TrimSpace(cfg.ActorID),
			TenantID: strings.TrimSpace(cfg.TenantID),
		},
	}
	if e.defaults.Channel == "" {
		e.defaults.Channel = DefaultChannel
	}
	if cfg.Enabled {
		e.hooks = slices.DeleteFunc(slices.Clone(hooks), func(hook ActivityHook) bool {
			return hook == nil
		})
	}
	return e
}

// Enabled reports whether Emit delivers anything.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit stamps the defaults onto blank identity fields and notifies every
// hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	fill(&event.Channel, e.defaults.Channel)
	fill(&event.ActorID, e.defaults.ActorID)
	fill(&event.TenantID, e.defaults.TenantID)
	return e.hooks.Notify(ctx, event)
}

func fill(field *string, fallback string) {
	if strings.TrimSpace(*field) == "" {
		*field = fallback
	}
}
