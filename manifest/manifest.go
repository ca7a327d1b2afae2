// Package manifest handles scratch.toml player configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/scratchvm/vm"
)

// FileName is the name of the player configuration file.
const FileName = "scratch.toml"

// Manifest represents a scratch.toml player configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Player   Player   `toml:"player"`
	Controls Controls `toml:"controls"`
	Cloud    Cloud    `toml:"cloud"`
	Snapshot Snapshot `toml:"snapshot"`

	// Dir is the directory containing the scratch.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project names the program to play.
type Project struct {
	Name string `toml:"name"`
	File string `toml:"file"`
}

// Player configures the host platform and frame loop.
type Player struct {
	Platform string `toml:"platform"`
	FPS      int    `toml:"fps"`
	HardExit bool   `toml:"hard-exit"`
	Username string `toml:"username"`
	Log      string `toml:"log"`
}

// Controls points at a button mapping file.
type Controls struct {
	File string `toml:"file"`
}

// Cloud configures cloud variable sync.
type Cloud struct {
	URL    string `toml:"url"`
	Origin string `toml:"origin"`
	Store  string `toml:"store"`
}

// Snapshot configures the CBOR frame stream.
type Snapshot struct {
	Output string `toml:"output"`
}

// Load parses a scratch.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Project.File == "" {
		m.Project.File = "project.sb3"
	}
	if m.Player.Platform == "" {
		m.Player.Platform = "pc"
	}
	if m.Cloud.Store == "" {
		m.Cloud.Store = filepath.Join(".scratch", "cloud.db")
	}

	return &m, nil
}

// Default returns the configuration used when no scratch.toml exists.
func Default(dir string) *Manifest {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return &Manifest{
		Project: Project{File: "project.sb3"},
		Player:  Player{Platform: "pc"},
		Cloud:   Cloud{Store: filepath.Join(".scratch", "cloud.db")},
		Dir:     abs,
	}
}

// FindAndLoad walks up from startDir to find a scratch.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// resolve makes a configured path absolute relative to the manifest.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ProjectPath returns the absolute path of the project file.
func (m *Manifest) ProjectPath() string { return m.resolve(m.Project.File) }

// ControlsPath returns the absolute path of the controls file, or "".
func (m *Manifest) ControlsPath() string { return m.resolve(m.Controls.File) }

// CloudStorePath returns the absolute path of the cloud variable database.
func (m *Manifest) CloudStorePath() string { return m.resolve(m.Cloud.Store) }

// SnapshotPath returns the absolute path of the frame stream, or "".
func (m *Manifest) SnapshotPath() string { return m.resolve(m.Snapshot.Output) }

// Profile returns the platform profile the player runs under.
func (m *Manifest) Profile() vm.Profile {
	p := vm.PlatformProfile(m.Player.Platform)
	if m.Player.HardExit {
		p.HardExitOnStop = true
	}
	return p
}
