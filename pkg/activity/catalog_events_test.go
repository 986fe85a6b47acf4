package activity

import (
	"context"
	"errors"
	"testing"
)

func TestBuildTypeLoadedEvent(t *testing.T) {
	ids := []string{"svc1", "svc2"}
	event := BuildTypeLoadedEvent(TypeLoadedInput{
		LoadID:     "load-1",
		Type:       " service ",
		Fragments:  3,
		IDs:        ids,
		Modifiers:  []string{"prod"},
		HasDefault: true,
	})

	if event.Verb != VerbTypeLoaded || event.ObjectType != ObjectTypeConfigType || event.ObjectID != "service" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.Metadata["load_id"] != "load-1" || event.Metadata["fragments"] != 3 || event.Metadata["has_default"] != true {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	got := event.Metadata["ids"].([]string)
	got[0] = "changed"
	if ids[0] != "svc1" {
		t.Fatalf("expected input ids untouched")
	}
}

func TestBuildEntryResolvedEvent(t *testing.T) {
	event := BuildEntryResolvedEvent(EntryResolvedInput{
		Type:             "service",
		Level:            "id",
		Key:              "svc1",
		Source:           "conf/svc1.yaml",
		ConsumerID:       "svc1",
		ConsumerModifier: "prod",
	})

	if event.ObjectID != "service/id/svc1" {
		t.Fatalf("unexpected object id %q", event.ObjectID)
	}
	if event.Metadata["source"] != "conf/svc1.yaml" || event.Metadata["consumer_modifier"] != "prod" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}

func TestBuildEntryResolvedEventWithoutTypeIsDropped(t *testing.T) {
	capture := &CaptureHook{}
	event := BuildEntryResolvedEvent(EntryResolvedInput{Level: "default", Key: "*"})
	if err := (Hooks{capture}).Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected event without object id to be dropped, got %d", len(capture.Events))
	}
}

func TestBuildLoadFailedEvent(t *testing.T) {
	event := BuildLoadFailedEvent("", errors.New("duplicate"))
	if event.ObjectID != ObjectTypeLoad {
		t.Fatalf("expected fallback object id, got %q", event.ObjectID)
	}
	if event.Metadata["error"] != "duplicate" {
		t.Fatalf("expected error metadata, got %+v", event.Metadata)
	}
}
