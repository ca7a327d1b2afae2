package vm

import "time"

// ---------------------------------------------------------------------------
// Project and settings
// ---------------------------------------------------------------------------

// Settings are the project-level options that shape execution.
type Settings struct {
	Width          int
	Height         int
	FPS            int
	Fencing        bool
	MiscLimits     bool
	InfiniteClones bool
}

// DefaultSettings returns the settings used when a project carries none:
// a 480x360 stage at 30 FPS with fencing, misc limits and finite clones.
func DefaultSettings() Settings {
	return Settings{
		Width:      480,
		Height:     360,
		FPS:        30,
		Fencing:    true,
		MiscLimits: true,
	}
}

// Project is a fully loaded program: its targets in layer order (stage
// first), the shared block graph, monitors and settings.
type Project struct {
	Sprites  []*Sprite
	Graph    *Graph
	Monitors []*Monitor
	Settings Settings

	// Source is the raw project.json, kept for cloud project ids.
	Source []byte
}

// Stage returns the project's stage target, or nil.
func (p *Project) Stage() *Sprite {
	for _, s := range p.Sprites {
		if s.IsStage {
			return s
		}
	}
	return nil
}

// Profile describes the host platform.
type Profile struct {
	Name           string
	CloneLimit     int
	HardExitOnStop bool
}

// PlatformProfile returns the profile of a named platform.
func PlatformProfile(name string) Profile {
	return Profile{
		Name:       name,
		CloneLimit: PlatformCloneLimit(name),
		// The Wii U freezes when returning to the menu after a stop.
		HardExitOnStop: name == "wiiu",
	}
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// Clock supplies the current time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// InputSnapshot is the normalized input state for one tick. Keys holds
// Scratch key names ("space", "left arrow", "a", ...).
type InputSnapshot struct {
	Keys      []string
	MouseX    float64
	MouseY    float64
	MouseDown bool
}

// InputSource is polled once at the start of every tick.
type InputSource interface {
	Poll() InputSnapshot
}

// Renderer receives the visible state at the end of every tick.
type Renderer interface {
	Render(*Snapshot) error
}

// AudioSink plays sounds on behalf of sprites.
type AudioSink interface {
	Play(spriteID string, sound Sound)
	StopAll()
	SetVolume(spriteID string, volume float64)
	IsPlaying(spriteID string, sound Sound) bool
}

// Prompter shows "ask and wait" questions and collects answers.
type Prompter interface {
	Ask(question string)
	// Answer returns the submitted answer once one is available.
	Answer() (string, bool)
}

// CloudHook is told about every write to a cloud variable.
type CloudHook interface {
	CloudVariableChanged(name string, value Value)
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// Snapshot is everything a renderer needs to draw one frame.
type Snapshot struct {
	Frame    uint64         `cbor:"1,keyasint"`
	Width    int            `cbor:"2,keyasint"`
	Height   int            `cbor:"3,keyasint"`
	Sprites  []SpriteState  `cbor:"4,keyasint"`
	Monitors []MonitorState `cbor:"5,keyasint,omitempty"`
	Pen      []PenCommand   `cbor:"6,keyasint,omitempty"`
	Question string         `cbor:"7,keyasint,omitempty"`
}

// SpriteState is the drawable state of one sprite.
type SpriteState struct {
	ID            string             `cbor:"1,keyasint"`
	Name          string             `cbor:"2,keyasint"`
	IsStage       bool               `cbor:"3,keyasint,omitempty"`
	X             float64            `cbor:"4,keyasint"`
	Y             float64            `cbor:"5,keyasint"`
	Direction     float64            `cbor:"6,keyasint"`
	Size          float64            `cbor:"7,keyasint"`
	Layer         int                `cbor:"8,keyasint"`
	RotationStyle string             `cbor:"9,keyasint"`
	Visible       bool               `cbor:"10,keyasint"`
	Costume       string             `cbor:"11,keyasint"`
	Effects       map[string]float64 `cbor:"12,keyasint,omitempty"`
	Bubble        string             `cbor:"13,keyasint,omitempty"`
	Think         bool               `cbor:"14,keyasint,omitempty"`
}

// MonitorState is the drawable state of one visible monitor.
type MonitorState struct {
	ID    string   `cbor:"1,keyasint"`
	Label string   `cbor:"2,keyasint"`
	Mode  string   `cbor:"3,keyasint"`
	Value string   `cbor:"4,keyasint"`
	Items []string `cbor:"5,keyasint,omitempty"`
	X     float64  `cbor:"6,keyasint"`
	Y     float64  `cbor:"7,keyasint"`
}

// PenCommandKind says what a PenCommand draws.
type PenCommandKind uint8

const (
	PenLine PenCommandKind = iota
	PenStamp
	PenClear
)

// PenCommand is one pen canvas mutation issued during a tick.
type PenCommand struct {
	Kind         PenCommandKind `cbor:"1,keyasint"`
	SpriteID     string         `cbor:"2,keyasint,omitempty"`
	From         Point          `cbor:"3,keyasint"`
	To           Point          `cbor:"4,keyasint"`
	Color        RGB            `cbor:"5,keyasint"`
	Size         float64        `cbor:"6,keyasint"`
	Transparency float64        `cbor:"7,keyasint"`
}
