package layering

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWithFallbackFromFixture(t *testing.T) {
	fx := loadMergeFixture(t, "merge_fallback.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			got := WithFallback(FromMap(tc.Primary), FromMap(tc.Fallback))
			if !reflect.DeepEqual(tc.Expect, got.ToMap()) {
				t.Errorf("merged tree mismatch:\nwant: %#v\n got: %#v", tc.Expect, got.ToMap())
			}
		})
	}
}

func TestWithFallbackDoesNotMutateInputs(t *testing.T) {
	primary := FromMap(map[string]any{"service": map[string]any{"port": 1}})
	fallback := FromMap(map[string]any{"service": map[string]any{"host": "x"}, "tags": []any{"a"}})

	merged := WithFallback(primary, fallback)

	if _, ok := primary.Lookup("service.host"); ok {
		t.Fatalf("primary must not gain fallback keys")
	}
	if _, ok := fallback.Lookup("service.port"); ok {
		t.Fatalf("fallback must not gain primary keys")
	}
	tags, _ := merged.Get("tags")
	tags.([]any)[0] = "changed"
	if got, _ := fallback.LookupStrings("tags"); got[0] != "a" {
		t.Fatalf("fallback list leaked through merged tree, got %v", got)
	}
}

func TestWithFallbackKeyOrder(t *testing.T) {
	primary := NewBuilder().Set("b", 1).Set("a", 2).Build()
	fallback := NewBuilder().Set("z", 3).Set("a", 4).Set("c", 5).Build()

	got := WithFallback(primary, fallback).Keys()
	want := []string{"b", "a", "z", "c"}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("unexpected key order: want %v got %v", want, got)
	}
}

func TestWithFallbackNilSides(t *testing.T) {
	tree := FromMap(map[string]any{"port": 8080})
	if got := WithFallback(nil, tree); !got.Equal(tree) {
		t.Fatalf("nil primary should yield fallback, got %v", got.ToMap())
	}
	if got := WithFallback(tree, nil); !got.Equal(tree) {
		t.Fatalf("nil fallback should yield primary, got %v", got.ToMap())
	}
	if got := WithFallback(nil, nil); got == nil || got.Len() != 0 {
		t.Fatalf("expected empty non-nil tree, got %#v", got)
	}
}

func TestMergeLayersStrongestFirst(t *testing.T) {
	id := FromMap(map[string]any{"host": "x"})
	modifier := FromMap(map[string]any{"host": "y", "logLevel": "warn"})
	defaults := FromMap(map[string]any{"host": "z", "logLevel": "info", "port": 8080})

	got := MergeLayers(id, modifier, defaults)
	want := map[string]any{"host": "x", "logLevel": "warn", "port": 8080}
	if !reflect.DeepEqual(want, got.ToMap()) {
		t.Fatalf("unexpected merge: want %v got %v", want, got.ToMap())
	}

	sequential := WithFallback(WithFallback(id, modifier), defaults)
	if !sequential.Equal(got) {
		t.Fatalf("MergeLayers should equal sequential fallback, got %v vs %v", got.ToMap(), sequential.ToMap())
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	if got := MergeLayers(); got == nil || got.Len() != 0 {
		t.Fatalf("expected MergeLayers() to return an empty tree, got %#v", got)
	}
}

func TestSetPathCreatesIntermediateTrees(t *testing.T) {
	base := FromMap(map[string]any{"service": map[string]any{"port": 8080}})

	got := SetPath(base, "service.serviceId", "svc1")

	if id, _ := got.LookupString("service.serviceId"); id != "svc1" {
		t.Fatalf("expected serviceId to be set, got %q", id)
	}
	if port, _ := got.Lookup("service.port"); port != 8080 {
		t.Fatalf("expected port to survive, got %v", port)
	}
	if _, ok := base.Lookup("service.serviceId"); ok {
		t.Fatalf("SetPath must not mutate its input")
	}

	replaced := SetPath(FromMap(map[string]any{"a": "leaf"}), "a.b", true)
	if v, _ := replaced.Lookup("a.b"); v != true {
		t.Fatalf("expected intermediate leaf to be replaced, got %v", replaced.ToMap())
	}
}

type mergeFixture struct {
	Description string             `json:"description"`
	Cases       []mergeFixtureCase `json:"cases"`
}

type mergeFixtureCase struct {
	Name     string         `json:"name"`
	Primary  map[string]any `json:"primary"`
	Fallback map[string]any `json:"fallback"`
	Expect   map[string]any `json:"expect"`
}

func loadMergeFixture(t *testing.T, name string) mergeFixture {
	t.Helper()
	path := filepath.Join("testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read merge fixture %q: %v", name, err)
	}
	var fx mergeFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal merge fixture %q: %v", name, err)
	}
	return fx
}
