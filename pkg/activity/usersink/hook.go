// Package usersink forwards catalog activity into a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-confscope/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink. Actor and tenant
// IDs that are not UUIDs are recorded as uuid.Nil and kept in the record
// data under actor_ref and tenant_ref.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := event.Normalize()
	if normalized.Validate() != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := normalized.Metadata
	actorID, ok := parseUUID(normalized.ActorID)
	if !ok {
		data = withRef(data, "actor_ref", normalized.ActorID)
	}
	tenantID, ok := parseUUID(normalized.TenantID)
	if !ok {
		data = withRef(data, "tenant_ref", normalized.TenantID)
	}

	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    actorID,
		TenantID:   tenantID,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	})
}

func parseUUID(input string) (uuid.UUID, bool) {
	value := strings.TrimSpace(input)
	if value == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func withRef(data map[string]any, key, value string) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	data[key] = value
	return data
}
