package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chazu/scratchvm/controls"
	"github.com/chazu/scratchvm/vm"
)

// keyHold is how long a key counts as held after its last byte arrived.
// Terminals report no key releases, so auto-repeat keeps a held key alive.
const keyHold = 150 * time.Millisecond

// escapeButtons maps terminal escape sequences to controller buttons.
var escapeButtons = map[string]string{
	"\x1b[A": "LeftStickUp",
	"\x1b[B": "LeftStickDown",
	"\x1b[C": "LeftStickRight",
	"\x1b[D": "LeftStickLeft",
	"\x1bOA": "LeftStickUp",
	"\x1bOB": "LeftStickDown",
	"\x1bOC": "LeftStickRight",
	"\x1bOD": "LeftStickLeft",
}

// terminal turns raw terminal bytes into key state for the runtime and
// answers "ask and wait" questions from typed lines. It implements
// vm.InputSource and vm.Prompter.
type terminal struct {
	mapping   controls.Mapping
	out       io.Writer
	now       func() time.Time
	interrupt func()

	mu       sync.Mutex
	held     map[string]time.Time
	asking   bool
	line     []rune
	answer   string
	answered bool
}

func newTerminal(m controls.Mapping, out io.Writer, interrupt func()) *terminal {
	return &terminal{
		mapping:   m,
		out:       out,
		now:       time.Now,
		interrupt: interrupt,
		held:      make(map[string]time.Time),
	}
}

// readFrom feeds everything read from r until it fails.
func (t *terminal) readFrom(r io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			t.feed(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				log.Warningf("terminal input: %s", err)
			}
			return
		}
	}
}

func (t *terminal) feed(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(data) > 0 {
		if data[0] == 0x1b {
			n := t.escape(data)
			data = data[n:]
			continue
		}
		switch c := data[0]; c {
		case 0x03:
			if t.interrupt != nil {
				t.interrupt()
			}
		case '\r', '\n':
			if t.asking {
				t.submit()
			} else {
				t.press("enter")
			}
		case 0x7f, 0x08:
			if t.asking && len(t.line) > 0 {
				t.line = t.line[:len(t.line)-1]
				fmt.Fprint(t.out, "\b \b")
			}
		default:
			r, size := utf8.DecodeRune(data)
			if r == utf8.RuneError || r < ' ' {
				data = data[max(size, 1):]
				continue
			}
			if t.asking {
				t.line = append(t.line, r)
				fmt.Fprint(t.out, string(r))
			} else if r == ' ' {
				t.press("space")
			} else {
				t.press(string(r))
			}
			data = data[size:]
			continue
		}
		data = data[1:]
	}
}

// escape consumes one escape sequence and returns its length.
func (t *terminal) escape(data []byte) int {
	for seq, button := range escapeButtons {
		if strings.HasPrefix(string(data), seq) {
			if !t.asking {
				t.press(button)
			}
			return len(seq)
		}
	}
	return 1
}

func (t *terminal) press(button string) {
	for _, key := range t.mapping.Keys([]string{button}, true) {
		t.held[key] = t.now()
	}
}

func (t *terminal) submit() {
	t.answer = string(t.line)
	t.answered = true
	t.asking = false
	t.line = nil
	fmt.Fprint(t.out, "\r\n")
}

// Poll implements vm.InputSource.
func (t *terminal) Poll() vm.InputSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	keys := make([]string, 0, len(t.held))
	for k, at := range t.held {
		if now.Sub(at) >= keyHold {
			delete(t.held, k)
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return vm.InputSnapshot{Keys: keys}
}

// Ask implements vm.Prompter.
func (t *terminal) Ask(question string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.asking = true
	t.answered = false
	t.line = nil
	if question != "" {
		fmt.Fprintf(t.out, "%s\r\n", question)
	}
	fmt.Fprint(t.out, "> ")
}

// Answer implements vm.Prompter.
func (t *terminal) Answer() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.answered {
		return "", false
	}
	t.answered = false
	return t.answer, true
}
