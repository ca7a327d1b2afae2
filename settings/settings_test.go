package settings

import (
	"errors"
	"testing"

	"github.com/chazu/scratchvm/vm"
)

const turbowarpComment = `Configuration for https://turbowarp.org/
You can move, resize, and minimize this comment, but don't edit it by hand. This comment can be deleted to remove the stored settings.
{"framerate":60,"runtimeOptions":{"maxClones":Infinity,"miscLimits":false,"fencing":false},"interpolation":false,"turbo":false,"hq":false,"width":400,"height":480} // _twconfig_`

func comments(texts ...string) map[string]vm.Comment {
	out := make(map[string]vm.Comment, len(texts))
	for i, text := range texts {
		id := string(rune('a' + i))
		out[id] = vm.Comment{ID: id, Text: text}
	}
	return out
}

func TestExtract(t *testing.T) {
	got, err := Extract(comments("just a note", turbowarpComment))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got[0] != '{' || got[len(got)-1] != '}' {
		t.Errorf("Extract = %q, want a braced object", got)
	}
	if _, err := Extract(comments("nothing here")); !errors.Is(err, ErrNoSettings) {
		t.Errorf("Extract without marker = %v, want ErrNoSettings", err)
	}
}

func TestJSONObjectIgnoresBracesInStrings(t *testing.T) {
	text := Marker + ` {"a":"}{","b":{"c":1}} trailing }`
	got, ok := jsonObject(text)
	if !ok {
		t.Fatal("no object found")
	}
	if want := `{"a":"}{","b":{"c":1}}`; got != want {
		t.Errorf("jsonObject = %q, want %q", got, want)
	}
	if _, ok := jsonObject(Marker + ` {"open": {`); ok {
		t.Error("unbalanced object accepted")
	}
}

func TestParse(t *testing.T) {
	obj, err := Extract(comments(turbowarpComment))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Parse(obj)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := vm.Settings{Width: 400, Height: 480, FPS: 60, Fencing: false, MiscLimits: false, InfiniteClones: true}
	if s != want {
		t.Errorf("Parse = %+v, want %+v", s, want)
	}
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse(`{}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := vm.DefaultSettings(); s != want {
		t.Errorf("Parse({}) = %+v, want %+v", s, want)
	}
}

func TestParseMaxClones(t *testing.T) {
	tests := []struct {
		json string
		want bool
	}{
		{`{"runtimeOptions":{"maxClones":null}}`, false},
		{`{"runtimeOptions":{"maxClones":300}}`, false},
		{`{"runtimeOptions":{"maxClones":5000}}`, true},
		{`{"runtimeOptions":{}}`, false},
	}
	for _, tt := range tests {
		s, err := Parse(tt.json)
		if err != nil {
			t.Fatalf("Parse(%s): %v", tt.json, err)
		}
		if s.InfiniteClones != tt.want {
			t.Errorf("Parse(%s).InfiniteClones = %v, want %v", tt.json, s.InfiniteClones, tt.want)
		}
	}
}

func TestParseRejectsBadTypes(t *testing.T) {
	for _, bad := range []string{`{"framerate":"fast"}`, `{"width":-5}`, `{"runtimeOptions":{"fencing":1}}`, `not json`} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%s) succeeded, want error", bad)
		}
	}
}

func TestFromCommentsFallsBack(t *testing.T) {
	if got := FromComments(nil); got != vm.DefaultSettings() {
		t.Errorf("no comments = %+v, want defaults", got)
	}
	broken := Marker + ` {"framerate": "x"}`
	if got := FromComments(comments(broken)); got != vm.DefaultSettings() {
		t.Errorf("malformed settings = %+v, want defaults", got)
	}
	if got := FromComments(comments(turbowarpComment)); got.FPS != 60 {
		t.Errorf("FPS = %d, want 60", got.FPS)
	}
}
