package main

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/chazu/scratchvm/controls"
	"github.com/chazu/scratchvm/vm"
)

func testTerminal() (*terminal, *time.Time, *bytes.Buffer, *bool) {
	var out bytes.Buffer
	interrupted := false
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t := newTerminal(controls.Default(), &out, func() { interrupted = true })
	t.now = func() time.Time { return now }
	return t, &now, &out, &interrupted
}

func TestTerminalKeys(t *testing.T) {
	term, now, _, _ := testTerminal()
	term.feed([]byte("\x1b[Aq Z\r"))
	got := term.Poll().Keys
	want := []string{"Z", "enter", "q", "space", "up arrow"}
	if !slices.Equal(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}

	*now = now.Add(keyHold)
	if got := term.Poll().Keys; len(got) != 0 {
		t.Errorf("keys after hold = %v, want none", got)
	}
}

func TestTerminalMapsButtons(t *testing.T) {
	term, _, _, _ := testTerminal()
	term.feed([]byte("A"))
	if got := term.Poll().Keys; !slices.Equal(got, []string{"a"}) {
		t.Errorf("button A = %v, want [a]", got)
	}
}

func TestTerminalInterrupt(t *testing.T) {
	term, _, _, interrupted := testTerminal()
	term.feed([]byte{0x03})
	if !*interrupted {
		t.Error("ctrl-c did not interrupt")
	}
}

func TestTerminalAsk(t *testing.T) {
	term, _, out, _ := testTerminal()
	term.Ask("What's your name?")
	if _, ok := term.Answer(); ok {
		t.Fatal("answer before typing")
	}
	term.feed([]byte("Adx\x7fa\x1b[A\r"))
	got, ok := term.Answer()
	if !ok || got != "Ada" {
		t.Errorf("answer = %q, %v; want Ada", got, ok)
	}
	if _, ok := term.Answer(); ok {
		t.Error("answer delivered twice")
	}
	if keys := term.Poll().Keys; len(keys) != 0 {
		t.Errorf("typing an answer pressed %v", keys)
	}
	if !strings.Contains(out.String(), "What's your name?") {
		t.Errorf("question not shown: %q", out.String())
	}
}

func TestBubbleRenderer(t *testing.T) {
	var out bytes.Buffer
	r := newBubbleRenderer(&out)
	frame := func(bubble string, think bool) *vm.Snapshot {
		return &vm.Snapshot{Sprites: []vm.SpriteState{{ID: "c", Name: "Cat", Bubble: bubble, Think: think}}}
	}
	for _, s := range []*vm.Snapshot{frame("Hi", false), frame("Hi", false), frame("", false), frame("Hmm", true)} {
		if err := r.Render(s); err != nil {
			t.Fatal(err)
		}
	}
	if want := "Cat says: Hi\r\nCat thinks: Hmm\r\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(*vm.Snapshot) error { return errors.New("disk full") }

func TestMultiRenderer(t *testing.T) {
	var out bytes.Buffer
	m := multiRenderer{failingRenderer{}, newBubbleRenderer(&out)}
	err := m.Render(&vm.Snapshot{Sprites: []vm.SpriteState{{ID: "c", Name: "Cat", Bubble: "x"}}})
	if err == nil || out.Len() == 0 {
		t.Errorf("err = %v, output = %q; want both renderers to run", err, out.String())
	}
}
