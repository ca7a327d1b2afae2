package vm

import (
	"slices"
)

// refreshMonitors recomputes the value of every visible monitor.
func (r *Runtime) refreshMonitors() {
	for _, m := range r.monitors {
		if m.Visible {
			r.refreshMonitor(m)
		}
	}
}

func (r *Runtime) refreshMonitor(m *Monitor) {
	owner := r.stage
	if m.SpriteName != "" {
		owner = r.SpriteByName(m.SpriteName)
	}
	if owner == nil {
		return
	}
	switch m.Opcode {
	case "data_variable":
		if v := r.lookupVariable(owner, m.ID, m.Params["VARIABLE"]); v != nil {
			m.Value = v.Value
		}
	case "data_listcontents":
		if l := r.lookupList(owner, m.ID, m.Params["LIST"]); l != nil {
			m.Items = slices.Clone(l.Items)
		}
	default:
		fn, ok := r.exec.reporters[m.Opcode]
		if !ok {
			return
		}
		b := &Block{ID: m.ID, Opcode: m.Opcode, Fields: make(map[string]ParsedField, len(m.Params))}
		for k, v := range m.Params {
			b.Fields[k] = ParsedField{Value: v}
		}
		m.Value = fn(r.exec, &Thread{Sprite: owner}, b)
	}
}

// setMonitorVisible shows or hides the monitor watching the given id.
func (r *Runtime) setMonitorVisible(id string, visible bool) {
	for _, m := range r.monitors {
		if m.ID == id {
			m.Visible = visible
			if visible {
				r.refreshMonitor(m)
			}
			return
		}
	}
}

func monitorLabel(m *Monitor) string {
	name := m.Opcode
	switch m.Opcode {
	case "data_variable":
		name = m.Params["VARIABLE"]
	case "data_listcontents":
		name = m.Params["LIST"]
	}
	if m.SpriteName != "" {
		return m.SpriteName + ": " + name
	}
	return name
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// Snapshot captures the visible state of the current tick.
func (r *Runtime) Snapshot() *Snapshot {
	snap := &Snapshot{
		Frame:    r.frame,
		Width:    r.settings.Width,
		Height:   r.settings.Height,
		Sprites:  make([]SpriteState, 0, len(r.sprites)),
		Pen:      slices.Clone(r.pen),
		Question: r.question,
	}
	for _, s := range r.sprites {
		if s.IsDeleted || s.ToDelete {
			continue
		}
		st := SpriteState{
			ID:            s.ID,
			Name:          s.Name,
			IsStage:       s.IsStage,
			X:             s.X,
			Y:             s.Y,
			Direction:     s.Direction,
			Size:          s.Size,
			Layer:         s.Layer,
			RotationStyle: s.RotationStyle.String(),
			Visible:       s.Visible,
			Bubble:        s.Bubble.Text,
			Think:         s.Bubble.Think,
		}
		if s.CurrentCostume >= 0 && s.CurrentCostume < len(s.Costumes) {
			st.Costume = s.Costumes[s.CurrentCostume].Name
		}
		if len(s.Effects) > 0 {
			st.Effects = make(map[string]float64, len(s.Effects))
			for k, v := range s.Effects {
				if v != 0 {
					st.Effects[k] = v
				}
			}
		}
		snap.Sprites = append(snap.Sprites, st)
	}
	for _, m := range r.monitors {
		if !m.Visible {
			continue
		}
		ms := MonitorState{
			ID:    m.ID,
			Label: monitorLabel(m),
			Mode:  m.Mode,
			Value: m.Value.AsString(),
			X:     m.X,
			Y:     m.Y,
		}
		if m.Opcode == "data_listcontents" {
			ms.Items = make([]string, len(m.Items))
			for i, it := range m.Items {
				ms.Items[i] = it.AsString()
			}
		}
		snap.Monitors = append(snap.Monitors, ms)
	}
	return snap
}

// render hands the tick's snapshot to the renderer and clears the pen
// command buffer.
func (r *Runtime) render() {
	if r.renderer != nil {
		if err := r.renderer.Render(r.Snapshot()); err != nil {
			log.Errorf("render frame %d: %s", r.frame, err.Error())
		}
	}
	r.pen = r.pen[:0]
}
