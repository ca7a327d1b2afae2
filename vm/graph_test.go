package vm

import (
	"slices"
	"testing"
)

func TestGraphLink(t *testing.T) {
	g := NewGraph()
	hat := g.Add(Block{ID: "hat", Opcode: "event_whenflagclicked", NextID: "loop", TopLevel: true})
	loop := g.Add(Block{ID: "loop", Opcode: "control_forever", ParentID: "hat", Inputs: map[string]ParsedInput{
		"SUBSTACK": BlockInput("body"),
	}})
	body := g.Add(Block{ID: "body", Opcode: "motion_movesteps", ParentID: "loop", NextID: "gone"})
	g.Link()

	if got := g.Block(hat).Next; got != loop {
		t.Errorf("hat.Next = %d, want %d", got, loop)
	}
	if got := g.Block(loop).Substack("SUBSTACK"); got != body {
		t.Errorf("loop substack = %d, want %d", got, body)
	}
	if got := g.Block(body).Next; got != NoBlock {
		t.Errorf("dangling next = %d, want NoBlock", got)
	}
	for _, ref := range []BlockRef{hat, loop, body} {
		b := g.Block(ref)
		if b.TopLevelParent != hat || b.ChainID != "hat" {
			t.Errorf("%s: top = %d chain = %q, want %d \"hat\"", b.ID, b.TopLevelParent, b.ChainID, hat)
		}
	}
	if got, want := g.Chain(hat), []BlockRef{hat, loop, body}; !slices.Equal(got, want) {
		t.Errorf("Chain = %v, want %v", got, want)
	}
}

func TestGraphLookup(t *testing.T) {
	g := NewGraph()
	ref := g.Add(Block{ID: "a", Opcode: "looks_show"})
	if got := g.Lookup("a"); got != ref {
		t.Errorf("Lookup(a) = %d, want %d", got, ref)
	}
	for _, id := range []string{"", "missing"} {
		if got := g.Lookup(id); got != NoBlock {
			t.Errorf("Lookup(%q) = %d, want NoBlock", id, got)
		}
	}
	if g.Block(NoBlock) != nil || g.Block(BlockRef(7)) != nil {
		t.Error("Block on a bad handle should be nil")
	}
	if g.Find("a").Opcode != "looks_show" {
		t.Error("Find(a) returned the wrong block")
	}
}

func TestGraphParentCycle(t *testing.T) {
	g := NewGraph()
	a := g.Add(Block{ID: "a", ParentID: "b"})
	g.Add(Block{ID: "b", ParentID: "a"})
	g.Link()
	if got := g.Block(a).TopLevelParent; got != NoBlock {
		t.Errorf("cycle top = %d, want NoBlock", got)
	}
}

func TestGraphReset(t *testing.T) {
	g := NewGraph()
	g.Add(Block{ID: "a"})
	g.Reset()
	if g.Len() != 0 || g.Lookup("a") != NoBlock {
		t.Errorf("after Reset: len %d, lookup %d", g.Len(), g.Lookup("a"))
	}
}

func TestIndexChainsRegistersProcedures(t *testing.T) {
	p := newTestProject()
	cat := p.sprite("Cat")
	p.script(cat, definition(&Mutation{
		ProcCode:      "spin %n",
		ArgumentIDs:   []string{"x"},
		ArgumentNames: []string{"times"},
		Warp:          true,
	}, move(1))...)
	p.g.Link()
	cat.IndexChains(p.g)

	cb := cat.CustomBlocks["spin %n"]
	if cb == nil {
		t.Fatal("procedure not registered")
	}
	if !cb.Warp || cb.Definition != cat.Scripts[0] || !slices.Equal(cb.ArgumentNames, []string{"times"}) {
		t.Errorf("custom block = %+v", cb)
	}
	top := p.g.Block(cat.Scripts[0])
	if n := len(cat.BlockChains[top.ID]); n != 2 {
		t.Errorf("chain length = %d, want 2", n)
	}
}
