package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a scratch.toml
	dir := t.TempDir()
	tomlContent := `
[project]
name = "pong"
file = "games/pong.sb3"

[player]
platform = "wiiu"
fps = 60
username = "ada"

[controls]
file = "controls.yaml"

[cloud]
url = "wss://clouddata.example.com"
store = "/var/lib/scratch/cloud.db"

[snapshot]
output = "frames.cbor"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "pong" {
		t.Errorf("project name = %q, want pong", m.Project.Name)
	}
	if got, want := m.ProjectPath(), filepath.Join(m.Dir, "games", "pong.sb3"); got != want {
		t.Errorf("project path = %q, want %q", got, want)
	}
	if m.Player.FPS != 60 || m.Player.Username != "ada" {
		t.Errorf("player = %+v", m.Player)
	}
	if got, want := m.ControlsPath(), filepath.Join(m.Dir, "controls.yaml"); got != want {
		t.Errorf("controls path = %q, want %q", got, want)
	}
	if m.Cloud.URL != "wss://clouddata.example.com" {
		t.Errorf("cloud url = %q", m.Cloud.URL)
	}
	if got := m.CloudStorePath(); got != "/var/lib/scratch/cloud.db" {
		t.Errorf("absolute store path rewritten to %q", got)
	}
	if got, want := m.SnapshotPath(), filepath.Join(m.Dir, "frames.cbor"); got != want {
		t.Errorf("snapshot path = %q, want %q", got, want)
	}

	p := m.Profile()
	if p.Name != "wiiu" || p.CloneLimit != 800 || !p.HardExitOnStop {
		t.Errorf("profile = %+v", p)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[project]
name = "minimal"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.File != "project.sb3" {
		t.Errorf("default project file = %q, want project.sb3", m.Project.File)
	}
	if m.Player.Platform != "pc" {
		t.Errorf("default platform = %q, want pc", m.Player.Platform)
	}
	if m.ControlsPath() != "" || m.SnapshotPath() != "" {
		t.Errorf("unset paths resolved: %q %q", m.ControlsPath(), m.SnapshotPath())
	}
	if p := m.Profile(); p.HardExitOnStop {
		t.Error("pc profile should not hard-exit")
	}
}

func TestLoadManifestForcedHardExit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[player]\nhard-exit = true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !m.Profile().HardExitOnStop {
		t.Error("hard-exit = true not applied to the profile")
	}
}

func TestLoadManifestParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[player\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected a parse error")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[project]
name = "found-project"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no scratch.toml exists")
	}
}

func TestDefault(t *testing.T) {
	m := Default("/app")
	if m.ProjectPath() != "/app/project.sb3" {
		t.Errorf("default project path = %q, want /app/project.sb3", m.ProjectPath())
	}
	if m.CloudStorePath() != "/app/.scratch/cloud.db" {
		t.Errorf("default store = %q", m.CloudStorePath())
	}
}
