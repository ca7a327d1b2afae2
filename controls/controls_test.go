package controls

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDefault(t *testing.T) {
	m := Default()
	tests := []struct{ button, key string }{
		{"A", "a"},
		{"dpadUp", "u"},
		{"LeftStickUp", "up arrow"},
		{"start", "1"},
		{"RT", "f"},
	}
	for _, tt := range tests {
		if got, ok := m.Key(tt.button); !ok || got != tt.key {
			t.Errorf("Key(%s) = %q, %v; want %q", tt.button, got, ok, tt.key)
		}
	}
}

func TestParseYAML(t *testing.T) {
	m, err := Parse([]byte("controls:\n  space: A\n  up arrow: dpadUp\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, _ := m.Key("A"); got != "space" {
		t.Errorf("A -> %q, want space", got)
	}
	if got, _ := m.Key("dpadUp"); got != "up arrow" {
		t.Errorf("dpadUp -> %q, want up arrow", got)
	}
	if _, ok := m.Key("B"); ok {
		t.Error("a file mapping should replace the defaults")
	}
}

func TestParseJSON(t *testing.T) {
	m, err := Parse([]byte(`{"controls": {"x": "X", "space": "start"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, _ := m.Key("start"); got != "space" {
		t.Errorf("start -> %q, want space", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, bad := range []string{"controls: [", "other: {}", `{"controls": "nope"}`} {
		if _, err := Parse([]byte(bad)); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", bad)
		}
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "controls.yaml")
	if err := os.WriteFile(path, []byte("controls:\n  space: A\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got, _ := LoadOrDefault(path).Key("A"); got != "space" {
		t.Errorf("loaded A -> %q, want space", got)
	}
	if got, _ := LoadOrDefault(filepath.Join(dir, "missing.yaml")).Key("A"); got != "a" {
		t.Errorf("fallback A -> %q, want a", got)
	}
	if got, _ := LoadOrDefault("").Key("B"); got != "b" {
		t.Errorf("default B -> %q, want b", got)
	}
}

func TestKeys(t *testing.T) {
	m := Mapping{"A": "space"}
	if got, want := m.Keys([]string{"A", "q"}, true), []string{"space", "q"}; !slices.Equal(got, want) {
		t.Errorf("Keys passthrough = %v, want %v", got, want)
	}
	if got, want := m.Keys([]string{"A", "q"}, false), []string{"space"}; !slices.Equal(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
}
