package layering

import "testing"

func TestLevelStringRoundTrip(t *testing.T) {
	for _, level := range Levels() {
		if got := ParseLevel(level.String()); got != level {
			t.Fatalf("round trip for %v returned %v", level, got)
		}
	}
	if got := ParseLevel("tenant"); got != LevelUnknown {
		t.Fatalf("expected unknown level, got %v", got)
	}
	if got := Level(42).String(); got != "unknown" {
		t.Fatalf("expected unknown label, got %q", got)
	}
}

func TestLevelsOrderedStrongestFirst(t *testing.T) {
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		if levels[i-1] <= levels[i] {
			t.Fatalf("levels must be strictly decreasing, got %v", levels)
		}
	}
}
