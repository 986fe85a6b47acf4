package activity

import (
	"strings"
	"time"
)

const (
	// VerbTypeLoaded marks a configuration type installed into a catalog.
	VerbTypeLoaded = "confscope.type.loaded"
	// VerbLoadFailed marks a load that was aborted before installing.
	VerbLoadFailed = "confscope.load.failed"
	// VerbEntryResolved marks the first resolution of an entry, the moment
	// its fallbacks are composed.
	VerbEntryResolved = "confscope.entry.resolved"

	ObjectTypeConfigType  = "config_type"
	ObjectTypeConfigEntry = "config_entry"
	ObjectTypeLoad        = "config_load"
)

// TypeLoadedInput describes one type installed by a load.
type TypeLoadedInput struct {
	LoadID     string
	Type       string
	Fragments  int
	IDs        []string
	Modifiers  []string
	HasDefault bool
	OccurredAt time.Time
}

// BuildTypeLoadedEvent constructs the event emitted per installed type.
func BuildTypeLoadedEvent(input TypeLoadedInput) Event {
	metadata := map[string]any{
		"fragments":   input.Fragments,
		"ids":         cloneStrings(input.IDs),
		"modifiers":   cloneStrings(input.Modifiers),
		"has_default": input.HasDefault,
	}
	if input.LoadID != "" {
		metadata["load_id"] = input.LoadID
	}
	return Event{
		Verb:       VerbTypeLoaded,
		ObjectType: ObjectTypeConfigType,
		ObjectID:   strings.TrimSpace(input.Type),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildLoadFailedEvent constructs the event emitted when a load aborts.
func BuildLoadFailedEvent(loadID string, err error) Event {
	metadata := map[string]any{}
	if err != nil {
		metadata["error"] = err.Error()
	}
	objectID := strings.TrimSpace(loadID)
	if objectID == "" {
		objectID = ObjectTypeLoad
	}
	return Event{
		Verb:       VerbLoadFailed,
		ObjectType: ObjectTypeLoad,
		ObjectID:   objectID,
		Metadata:   metadata,
	}
}

// EntryResolvedInput describes the first resolution of an entry.
type EntryResolvedInput struct {
	Type             string
	Level            string
	Key              string
	Source           string
	ConsumerID       string
	ConsumerModifier string
	OccurredAt       time.Time
}

// BuildEntryResolvedEvent constructs the event emitted when an entry is
// composed. The object ID has the form <type>/<level>/<key>.
func BuildEntryResolvedEvent(input EntryResolvedInput) Event {
	metadata := map[string]any{
		"level": input.Level,
		"key":   input.Key,
	}
	if input.Source != "" {
		metadata["source"] = input.Source
	}
	if input.ConsumerID != "" {
		metadata["consumer_id"] = input.ConsumerID
	}
	if input.ConsumerModifier != "" {
		metadata["consumer_modifier"] = input.ConsumerModifier
	}
	return Event{
		Verb:       VerbEntryResolved,
		ObjectType: ObjectTypeConfigEntry,
		ObjectID:   EntryObjectID(input.Type, input.Level, input.Key),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// EntryObjectID formats the object ID used for entry events.
func EntryObjectID(typeName, level, key string) string {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return ""
	}
	return typeName + "/" + strings.TrimSpace(level) + "/" + strings.TrimSpace(key)
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	return append([]string(nil), values...)
}
