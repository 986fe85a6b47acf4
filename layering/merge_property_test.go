package layering

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// genMap draws a nested map whose keys all carry prefix.
func genMap(t *rapid.T, prefix string, depth int) map[string]any {
	size := rapid.IntRange(0, 4).Draw(t, "size")
	out := make(map[string]any, size)
	for i := 0; i < size; i++ {
		key := fmt.Sprintf("%s%s", prefix, rapid.StringMatching(`[a-f]{1,3}`).Draw(t, "key"))
		if depth > 0 && rapid.Bool().Draw(t, "nested") {
			out[key] = genMap(t, prefix, depth-1)
			continue
		}
		out[key] = rapid.OneOf(
			rapid.Just[any]("leaf"),
			rapid.Map(rapid.IntRange(-100, 100), func(v int) any { return v }),
			rapid.Map(rapid.Bool(), func(v bool) any { return v }),
		).Draw(t, "leaf")
	}
	return out
}

// reshape returns a map with the same key structure as src and different
// leaf values.
func reshape(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		if nested, ok := value.(map[string]any); ok {
			out[key] = reshape(nested)
			continue
		}
		out[key] = "other"
	}
	return out
}

func TestWithFallbackDisjointIsUnion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := FromMap(genMap(t, "a_", 2))
		b := FromMap(genMap(t, "b_", 2))

		merged := WithFallback(a, b).Flatten()
		flatA, flatB := a.Flatten(), b.Flatten()

		if len(merged) != len(flatA)+len(flatB) {
			t.Fatalf("expected %d leaves, got %d", len(flatA)+len(flatB), len(merged))
		}
		for path, value := range flatA {
			if merged[path] != value {
				t.Fatalf("path %s: want %v got %v", path, value, merged[path])
			}
		}
		for path, value := range flatB {
			if merged[path] != value {
				t.Fatalf("path %s: want %v got %v", path, value, merged[path])
			}
		}
	})
}

func TestWithFallbackFullOverlapKeepsPrimary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := genMap(t, "k_", 2)
		primary := FromMap(raw)
		fallback := FromMap(reshape(raw))

		if merged := WithFallback(primary, fallback); !merged.Equal(primary) {
			t.Fatalf("expected primary values only\nwant: %v\n got: %v", primary.ToMap(), merged.ToMap())
		}
	})
}

func TestWithFallbackPrimaryLeavesAlwaysWin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		primary := FromMap(genMap(t, "", 2))
		fallback := FromMap(genMap(t, "", 2))

		merged := WithFallback(primary, fallback)
		for path, value := range primary.Flatten() {
			got, ok := merged.Lookup(path)
			if !ok {
				t.Fatalf("path %s missing from merged tree", path)
			}
			if fmt.Sprint(got) != fmt.Sprint(value) {
				t.Fatalf("path %s: want %v got %v", path, value, got)
			}
		}
	})
}

func TestWithFallbackReapplyIsStableInContent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		primary := FromMap(genMap(t, "", 2))
		fallback := FromMap(genMap(t, "", 2))

		once := WithFallback(primary, fallback)
		twice := WithFallback(once, fallback)
		if !once.Equal(twice) {
			t.Fatalf("re-applying the same fallback changed content\nonce:  %v\ntwice: %v", once.ToMap(), twice.ToMap())
		}
	})
}
