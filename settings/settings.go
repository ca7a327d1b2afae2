// Package settings reads the advanced project settings that editors such
// as TurboWarp embed in a stage comment, validating them against a CUE
// schema that also supplies the defaults.
package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/tliron/commonlog"

	"github.com/chazu/scratchvm/vm"
)

var log = commonlog.GetLogger("scratchvm.settings")

// Marker is the text identifying the settings comment.
const Marker = "Configuration for https"

// ErrNoSettings is returned by Extract when no comment carries settings.
var ErrNoSettings = errors.New("no settings comment")

//go:embed schema.cue
var schemaSource string

// config mirrors #Settings in schema.cue.
type config struct {
	Framerate      int `json:"framerate"`
	Width          int `json:"width"`
	Height         int `json:"height"`
	RuntimeOptions struct {
		Fencing    bool `json:"fencing"`
		MiscLimits bool `json:"miscLimits"`
	} `json:"runtimeOptions"`
}

// ---------------------------------------------------------------------------
// Comment extraction
// ---------------------------------------------------------------------------

// Extract finds the settings JSON in the stage comments. Comments are
// examined in id order; the first one holding a balanced JSON object
// after the marker wins.
func Extract(comments map[string]vm.Comment) (string, error) {
	ids := make([]string, 0, len(comments))
	for id := range comments {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if obj, ok := jsonObject(comments[id].Text); ok {
			return obj, nil
		}
	}
	return "", ErrNoSettings
}

// jsonObject returns the first balanced {...} after the marker in text.
// Braces inside string literals do not count.
func jsonObject(text string) (string, bool) {
	at := strings.Index(text, Marker)
	if at < 0 {
		return "", false
	}
	start := strings.IndexByte(text[at:], '{')
	if start < 0 {
		return "", false
	}
	start += at
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if c == '"' && text[i-1] != '\\' {
			inString = !inString
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Parse validates a settings object and returns the settings it describes,
// with defaults for everything it leaves out. JSON has no Infinity, so the
// token is read as 1e9.
func Parse(data string) (vm.Settings, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return vm.Settings{}, fmt.Errorf("compile settings schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Settings"))

	data = strings.ReplaceAll(data, "Infinity", "1e9")
	expr, err := cuejson.Extract("settings.json", []byte(data))
	if err != nil {
		return vm.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	v := def.Unify(ctx.BuildExpr(expr))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return vm.Settings{}, fmt.Errorf("validate settings: %w", err)
	}

	var c config
	if err := v.Decode(&c); err != nil {
		return vm.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s := vm.Settings{
		Width:      c.Width,
		Height:     c.Height,
		FPS:        c.Framerate,
		Fencing:    c.RuntimeOptions.Fencing,
		MiscLimits: c.RuntimeOptions.MiscLimits,
	}
	s.InfiniteClones = infiniteClones(v.LookupPath(cue.ParsePath("runtimeOptions.maxClones")))
	return s, nil
}

// infiniteClones reports whether maxClones lifts the default clone limit.
// Only values above vm.DefaultCloneLimit count; a project asking for fewer
// clones than the default keeps the default.
func infiniteClones(v cue.Value) bool {
	if !v.Exists() || v.Kind() == cue.NullKind {
		return false
	}
	n, err := v.Float64()
	if err != nil {
		return false
	}
	return n > vm.DefaultCloneLimit
}

// FromComments returns the project settings described by the stage
// comments. Missing or malformed settings yield vm.DefaultSettings.
func FromComments(comments map[string]vm.Comment) vm.Settings {
	obj, err := Extract(comments)
	if err != nil {
		return vm.DefaultSettings()
	}
	s, err := Parse(obj)
	if err != nil {
		log.Warningf("ignoring advanced settings: %s", err.Error())
		return vm.DefaultSettings()
	}
	log.Infof("advanced settings: %dx%d at %d fps, fencing %t, misc limits %t, infinite clones %t",
		s.Width, s.Height, s.FPS, s.Fencing, s.MiscLimits, s.InfiniteClones)
	return s
}
