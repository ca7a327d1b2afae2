package vm

import "strings"

// pollInput reads the input source and fires key and click hats.
func (r *Runtime) pollInput() {
	if r.input == nil {
		return
	}
	in := r.input.Poll()
	r.mouse = Point{X: in.MouseX, Y: in.MouseY}

	pressed := make(map[string]bool, len(in.Keys))
	for _, k := range in.Keys {
		k = strings.ToLower(k)
		if pressed[k] {
			continue
		}
		pressed[k] = true
		if !r.keys[k] {
			r.keyDown(k)
		}
	}
	r.keys = pressed

	switch {
	case in.MouseDown && !r.mouseDown:
		r.click()
	case in.MouseDown && r.drag != nil:
		s := r.drag.sprite
		s.X, s.Y = r.mouse.X+r.drag.dx, r.mouse.Y+r.drag.dy
		if r.settings.Fencing {
			r.FenceSpriteWithinBounds(s)
		}
	case !in.MouseDown:
		r.drag = nil
	}
	r.mouseDown = in.MouseDown
}

// keyDown starts the "when key pressed" scripts matching key or "any".
func (r *Runtime) keyDown(key string) {
	r.exec.startHats("event_whenkeypressed", func(_ *Sprite, b *Block) bool {
		opt := strings.ToLower(b.Field("KEY_OPTION"))
		return opt == key || opt == "any"
	})
}

// KeyPressed reports whether key ("any" for any key) is held this tick.
func (r *Runtime) KeyPressed(key string) bool {
	key = strings.ToLower(key)
	if key == "any" {
		return len(r.keys) > 0
	}
	return r.keys[key]
}

// click dispatches a pointer press to the topmost visible sprite under the
// pointer, or to the stage.
func (r *Runtime) click() {
	for i := len(r.sprites) - 1; i >= 0; i-- {
		s := r.sprites[i]
		if s.IsStage || !s.Visible || s.IsDeleted || s.ToDelete {
			continue
		}
		if !r.IsColliding("mouse", s, nil, "") {
			continue
		}
		r.exec.startHatsFor(s, "event_whenthisspriteclicked", nil)
		if s.Draggable {
			r.drag = &dragState{sprite: s, dx: s.X - r.mouse.X, dy: s.Y - r.mouse.Y}
		}
		return
	}
	if r.stage != nil {
		r.exec.startHatsFor(r.stage, "event_whenstageclicked", nil)
	}
}
