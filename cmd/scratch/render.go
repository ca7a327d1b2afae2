package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chazu/scratchvm/vm"
)

// bubbleRenderer prints speech and thought bubbles as they change, which is
// all of a project a text terminal can show.
type bubbleRenderer struct {
	w    io.Writer
	last map[string]string
}

func newBubbleRenderer(w io.Writer) *bubbleRenderer {
	return &bubbleRenderer{w: w, last: make(map[string]string)}
}

func (r *bubbleRenderer) Render(s *vm.Snapshot) error {
	for _, sp := range s.Sprites {
		if sp.Bubble == r.last[sp.ID] {
			continue
		}
		r.last[sp.ID] = sp.Bubble
		if sp.Bubble == "" {
			continue
		}
		verb := "says"
		if sp.Think {
			verb = "thinks"
		}
		if _, err := fmt.Fprintf(r.w, "%s %s: %s\r\n", sp.Name, verb, sp.Bubble); err != nil {
			return err
		}
	}
	return nil
}

// multiRenderer hands every frame to each renderer in turn.
type multiRenderer []vm.Renderer

func (m multiRenderer) Render(s *vm.Snapshot) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
