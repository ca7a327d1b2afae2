package vm

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Project builder
// ---------------------------------------------------------------------------

// node describes one block for the test builder. Input values may be a
// Value (literal), a node (reporter), a []node (substack) or a varRef.
type node struct {
	op     string
	in     map[string]any
	f      map[string]string
	mut    *Mutation
	shadow bool
}

type varRef string

type testProject struct {
	g       *Graph
	sprites []*Sprite
	ids     int
}

func newTestProject() *testProject {
	stage := NewSprite("stage", "Stage")
	stage.IsStage = true
	return &testProject{g: NewGraph(), sprites: []*Sprite{stage}}
}

func (p *testProject) stage() *Sprite { return p.sprites[0] }

func (p *testProject) sprite(name string) *Sprite {
	s := NewSprite("sprite-"+name, name)
	p.sprites = append(p.sprites, s)
	return s
}

// script adds a top-level stack to s; the first node is usually a hat.
func (p *testProject) script(s *Sprite, nodes ...node) {
	p.stack(s, "", nodes)
}

func (p *testProject) stack(s *Sprite, parentID string, nodes []node) string {
	var first, prev string
	for _, n := range nodes {
		p.ids++
		id := fmt.Sprintf("b%d", p.ids)
		b := Block{
			ID:       id,
			Opcode:   n.op,
			Fields:   make(map[string]ParsedField, len(n.f)),
			Inputs:   make(map[string]ParsedInput, len(n.in)),
			Mutation: n.mut,
			Shadow:   n.shadow,
			ParentID: parentID,
		}
		if prev != "" {
			b.ParentID = prev
		}
		b.TopLevel = parentID == "" && prev == ""
		for name, v := range n.f {
			b.Fields[name] = ParsedField{Value: v, ID: v}
		}
		for name, in := range n.in {
			switch v := in.(type) {
			case Value:
				b.Inputs[name] = LiteralInput(v)
			case varRef:
				b.Inputs[name] = VariableInput(string(v))
			case node:
				b.Inputs[name] = BlockInput(p.stack(s, id, []node{v}))
			case []node:
				b.Inputs[name] = BlockInput(p.stack(s, id, v))
			default:
				panic(fmt.Sprintf("unsupported input %T", in))
			}
		}
		ref := p.g.Add(b)
		if b.TopLevel {
			s.Scripts = append(s.Scripts, ref)
		}
		if prev != "" {
			p.g.Find(prev).NextID = id
		}
		if first == "" {
			first = id
		}
		prev = id
	}
	return first
}

func (p *testProject) project() *Project {
	return &Project{Sprites: p.sprites, Graph: p.g, Settings: DefaultSettings()}
}

func (p *testProject) runtime(opts ...Option) (*Runtime, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	base := []Option{WithClock(clock), WithRand(rand.New(rand.NewPCG(1, 2)))}
	return NewRuntime(p.project(), append(base, opts...)...), clock
}

// ---------------------------------------------------------------------------
// Block shorthands
// ---------------------------------------------------------------------------

func num(f float64) Value { return FromFloat64(f) }
func str(s string) Value  { return FromString(s) }

func whenFlag() node { return node{op: "event_whenflagclicked"} }

func whenReceived(msg string) node {
	return node{op: "event_whenbroadcastreceived", f: map[string]string{"BROADCAST_OPTION": msg}}
}

func broadcast(msg string) node {
	return node{op: "event_broadcast", in: map[string]any{"BROADCAST_INPUT": str(msg)}}
}

func move(steps float64) node {
	return node{op: "motion_movesteps", in: map[string]any{"STEPS": num(steps)}}
}

func changeX(dx any) node {
	return node{op: "motion_changexby", in: map[string]any{"DX": dx}}
}

func repeat(times float64, body ...node) node {
	return node{op: "control_repeat", in: map[string]any{"TIMES": num(times), "SUBSTACK": body}}
}

func addToList(list string, item any) node {
	return node{op: "data_addtolist", f: map[string]string{"LIST": list}, in: map[string]any{"ITEM": item}}
}

func newList(s *Sprite, name string) *List {
	l := &List{ID: name, Name: name}
	s.Lists[name] = l
	return l
}

func listStrings(l *List) []string {
	out := make([]string, len(l.Items))
	for i, it := range l.Items {
		out[i] = it.AsString()
	}
	return out
}

// ---------------------------------------------------------------------------
// Collaborator fakes
// ---------------------------------------------------------------------------

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeInput struct{ snap InputSnapshot }

func (f *fakeInput) Poll() InputSnapshot { return f.snap }

type fakeRenderer struct{ frames []*Snapshot }

func (f *fakeRenderer) Render(s *Snapshot) error {
	f.frames = append(f.frames, s)
	return nil
}

type fakePrompter struct {
	asked  []string
	answer string
	ready  bool
}

func (f *fakePrompter) Ask(q string) { f.asked = append(f.asked, q) }
func (f *fakePrompter) Answer() (string, bool) {
	return f.answer, f.ready
}

type fakeCloud struct{ changes map[string]string }

func (f *fakeCloud) CloudVariableChanged(name string, v Value) {
	if f.changes == nil {
		f.changes = make(map[string]string)
	}
	f.changes[name] = v.AsString()
}

func step(t *testing.T, rt *Runtime) {
	t.Helper()
	if err := rt.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
}
