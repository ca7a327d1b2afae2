// Package controls maps host buttons to the Scratch key names scripts
// listen for. A controls file (YAML, or JSON, which YAML accepts) holds a
// "controls" object from Scratch key to button:
//
//	controls:
//	  space: A
//	  up arrow: dpadUp
package controls

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

var log = commonlog.GetLogger("scratchvm.controls")

// Mapping maps a button name to the Scratch key it presses.
type Mapping map[string]string

// Default returns the built-in gamepad mapping.
func Default() Mapping {
	return Mapping{
		"dpadUp":            "u",
		"dpadDown":          "h",
		"dpadLeft":          "g",
		"dpadRight":         "j",
		"A":                 "a",
		"B":                 "b",
		"X":                 "x",
		"Y":                 "y",
		"shoulderL":         "l",
		"shoulderR":         "r",
		"start":             "1",
		"back":              "0",
		"LeftStickRight":    "right arrow",
		"LeftStickLeft":     "left arrow",
		"LeftStickDown":     "down arrow",
		"LeftStickUp":       "up arrow",
		"LeftStickPressed":  "c",
		"RightStickRight":   "5",
		"RightStickLeft":    "4",
		"RightStickDown":    "3",
		"RightStickUp":      "2",
		"RightStickPressed": "v",
		"LT":                "z",
		"RT":                "f",
	}
}

type file struct {
	Controls map[string]string `yaml:"controls"`
}

// Parse reads a controls document. The file maps keys to buttons; the
// result is inverted so buttons can be looked up directly.
func Parse(data []byte) (Mapping, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse controls: %w", err)
	}
	if f.Controls == nil {
		return nil, fmt.Errorf("parse controls: no controls object")
	}
	m := make(Mapping, len(f.Controls))
	// Sorted so a button listed twice maps to the same key on every run.
	for _, key := range slices.Sorted(maps.Keys(f.Controls)) {
		button := f.Controls[key]
		if prev, dup := m[button]; dup {
			log.Warningf("button %s mapped to both %q and %q, keeping %q", button, prev, key, key)
		}
		m[button] = key
		log.Debugf("control: %s -> %s", key, button)
	}
	return m, nil
}

// Load reads the controls file at path.
func Load(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("loaded %d controls from %s", len(m), path)
	return m, nil
}

// LoadOrDefault reads path, falling back to the default mapping when path
// is empty or unusable.
func LoadOrDefault(path string) Mapping {
	if path == "" {
		return Default()
	}
	m, err := Load(path)
	if err != nil {
		log.Warningf("using default controls: %s", err.Error())
		return Default()
	}
	return m
}

// Key returns the Scratch key for button.
func (m Mapping) Key(button string) (string, bool) {
	k, ok := m[button]
	return k, ok
}

// Keys translates pressed buttons to Scratch keys. Unmapped buttons pass
// through unchanged when passthrough is set and are dropped otherwise.
func (m Mapping) Keys(buttons []string, passthrough bool) []string {
	out := make([]string, 0, len(buttons))
	for _, b := range buttons {
		if k, ok := m[b]; ok {
			out = append(out, k)
		} else if passthrough {
			out = append(out, b)
		}
	}
	return out
}
