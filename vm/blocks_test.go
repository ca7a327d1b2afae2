package vm

import (
	"math"
	"slices"
	"testing"
)

// report runs a reporter directly against literal inputs.
func report(t *testing.T, rt *Runtime, s *Sprite, op string, in map[string]Value, fields map[string]string) Value {
	t.Helper()
	fn, ok := rt.exec.reporters[op]
	if !ok {
		t.Fatalf("no reporter %s", op)
	}
	b := &Block{Opcode: op, Inputs: make(map[string]ParsedInput), Fields: make(map[string]ParsedField)}
	for k, v := range in {
		b.Inputs[k] = LiteralInput(v)
	}
	for k, v := range fields {
		b.Fields[k] = ParsedField{Value: v, ID: v}
	}
	return fn(rt.exec, &Thread{Sprite: s}, b)
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

func TestMathop(t *testing.T) {
	tests := []struct {
		op   string
		in   float64
		want float64
	}{
		{"abs", -3, 3},
		{"floor", 2.7, 2},
		{"ceiling", 2.1, 3},
		{"sqrt", 16, 4},
		{"sin", 30, 0.5},
		{"cos", 90, 0},
		{"sin", 180, 0},
		{"tan", 45, 1},
		{"asin", 1, 90},
		{"atan", 1, 45},
		{"ln", math.E, 1},
		{"log", 1000, 3},
		{"e ^", 0, 1},
		{"10 ^", 2, 100},
		{"bogus", 5, 0},
	}
	for _, tt := range tests {
		if got := mathop(tt.op, tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("mathop(%q, %v) = %v, want %v", tt.op, tt.in, got, tt.want)
		}
	}
	if got := mathop("tan", 90); !math.IsInf(got, 1) {
		t.Errorf("tan 90 = %v, want +Inf", got)
	}
	if got := mathop("tan", -90); !math.IsInf(got, -1) {
		t.Errorf("tan -90 = %v, want -Inf", got)
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{FromString("10"), FromString("10.0"), true},
		{FromInt(1), FromFloat64(1), true},
		{FromString("apple"), FromString("APPLE"), true},
		{FromString(""), FromInt(0), false},
		{FromString(" "), FromString(""), false},
		{FromString("a"), FromString("b"), false},
		{FromBool(true), FromString("true"), true},
	}
	for _, tt := range tests {
		if got := looseEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("looseEqual(%q, %q) = %v, want %v", tt.a.AsString(), tt.b.AsString(), got, tt.want)
		}
	}
}

func TestStringOperators(t *testing.T) {
	p := newTestProject()
	cat := p.sprite("Cat")
	rt, _ := p.runtime()

	if got := report(t, rt, cat, "operator_join", map[string]Value{"STRING1": str("ab"), "STRING2": num(3)}, nil); got.AsString() != "ab3" {
		t.Errorf("join = %q, want ab3", got.AsString())
	}
	if got := report(t, rt, cat, "operator_letter_of", map[string]Value{"STRING": str("héllo"), "LETTER": num(2)}, nil); got.AsString() != "é" {
		t.Errorf("letter 2 = %q, want é", got.AsString())
	}
	if got := report(t, rt, cat, "operator_letter_of", map[string]Value{"STRING": str("hi"), "LETTER": num(9)}, nil); got.AsString() != "" {
		t.Errorf("letter 9 = %q, want empty", got.AsString())
	}
	if got := report(t, rt, cat, "operator_length", map[string]Value{"STRING": str("héllo")}, nil); got.AsInt() != 5 {
		t.Errorf("length = %d, want 5", got.AsInt())
	}
	if got := report(t, rt, cat, "operator_contains", map[string]Value{"STRING1": str("Hello"), "STRING2": str("ELL")}, nil); !got.AsBool() {
		t.Error("contains is not case-insensitive")
	}
	if got := report(t, rt, cat, "operator_round", map[string]Value{"NUM": num(-2.5)}, nil); got.AsDouble() != -2 {
		t.Errorf("round -2.5 = %v, want -2", got.AsDouble())
	}
}

func TestRandomRange(t *testing.T) {
	p := newTestProject()
	cat := p.sprite("Cat")
	rt, _ := p.runtime()

	for range 50 {
		v := report(t, rt, cat, "operator_random", map[string]Value{"FROM": num(3), "TO": num(1)}, nil)
		if n := v.AsDouble(); n < 1 || n > 3 || n != math.Trunc(n) {
			t.Fatalf("random 3..1 = %v, want whole number in [1, 3]", n)
		}
		v = report(t, rt, cat, "operator_random", map[string]Value{"FROM": num(0), "TO": str("1.0")}, nil)
		if n := v.AsDouble(); n < 0 || n > 1 {
			t.Fatalf("random 0..1.0 = %v, want within [0, 1]", n)
		}
	}
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func TestListContents(t *testing.T) {
	if got := listContents([]Value{str("a"), str("b"), num(1)}); got != "ab1" {
		t.Errorf("single characters = %q, want ab1", got)
	}
	if got := listContents([]Value{str("ab"), str("c")}); got != "ab c" {
		t.Errorf("words = %q, want %q", got, "ab c")
	}
	if got := listContents(nil); got != "" {
		t.Errorf("empty = %q", got)
	}
}

func TestListBlocks(t *testing.T) {
	p := newTestProject()
	trace := newList(p.stage(), "l")
	cat := p.sprite("Cat")
	list := func(op string, in map[string]any) node {
		return node{op: op, f: map[string]string{"LIST": "l"}, in: in}
	}
	p.script(cat, whenFlag(),
		addToList("l", str("a")),
		addToList("l", str("b")),
		addToList("l", str("c")),
		list("data_insertatlist", map[string]any{"ITEM": str("x"), "INDEX": num(1)}),
		list("data_insertatlist", map[string]any{"ITEM": str("z"), "INDEX": str("last")}),
		list("data_replaceitemoflist", map[string]any{"ITEM": str("B"), "INDEX": num(3)}),
		list("data_deleteoflist", map[string]any{"INDEX": num(2)}),
		list("data_deleteoflist", map[string]any{"INDEX": num(99)}),
	)
	rt, _ := p.runtime()
	step(t, rt)

	want := []string{"x", "B", "c", "z"}
	if got := listStrings(trace); !slices.Equal(got, want) {
		t.Fatalf("list = %v, want %v", got, want)
	}
	if got := report(t, rt, cat, "data_itemnumoflist", map[string]Value{"ITEM": str("b")}, map[string]string{"LIST": "l"}); got.AsInt() != 2 {
		t.Errorf("item # of b = %d, want 2", got.AsInt())
	}
	if got := report(t, rt, cat, "data_itemoflist", map[string]Value{"INDEX": str("last")}, map[string]string{"LIST": "l"}); got.AsString() != "z" {
		t.Errorf("last item = %q, want z", got.AsString())
	}
	if got := report(t, rt, cat, "data_lengthoflist", nil, map[string]string{"LIST": "l"}); got.AsInt() != 4 {
		t.Errorf("length = %d, want 4", got.AsInt())
	}
	if got := report(t, rt, cat, "data_listcontainsitem", map[string]Value{"ITEM": str("Q")}, map[string]string{"LIST": "l"}); got.AsBool() {
		t.Error("list contains Q")
	}
}

func TestListLimit(t *testing.T) {
	p := newTestProject()
	p.sprite("Cat")
	rt, _ := p.runtime()
	l := &List{Items: make([]Value, maxListLength)}
	if rt.listHasRoom(l) {
		t.Error("full list has room with misc limits on")
	}
	rt.settings.MiscLimits = false
	if !rt.listHasRoom(l) {
		t.Error("list limited with misc limits off")
	}
}

// ---------------------------------------------------------------------------
// Pen and looks
// ---------------------------------------------------------------------------

func TestPenParam(t *testing.T) {
	pen := DefaultPen
	penParam(&pen, "color", 90, false)
	penParam(&pen, "color", 20, true)
	if math.Abs(pen.Color.Hue-36) > 1e-9 {
		t.Errorf("hue = %v, want 36", pen.Color.Hue)
	}
	penParam(&pen, "saturation", 150, false)
	penParam(&pen, "transparency", -5, true)
	if pen.Color.Saturation != 100 || pen.Transparency != 0 {
		t.Errorf("saturation %v transparency %v, want 100 0", pen.Color.Saturation, pen.Transparency)
	}
}

func TestSensingOf(t *testing.T) {
	p := newTestProject()
	cat := p.sprite("Cat")
	cat.X, cat.Direction = 12, 45
	cat.Variables["hp"] = &Variable{ID: "hp", Name: "health", Value: FromInt(3)}
	dog := p.sprite("Dog")
	rt, _ := p.runtime()

	of := func(obj, prop string) Value {
		return report(t, rt, dog, "sensing_of", map[string]Value{"OBJECT": str(obj)}, map[string]string{"PROPERTY": prop})
	}
	if got := of("Cat", "x position").AsDouble(); got != 12 {
		t.Errorf("x position of Cat = %v, want 12", got)
	}
	if got := of("Cat", "direction").AsDouble(); got != 45 {
		t.Errorf("direction of Cat = %v, want 45", got)
	}
	if got := of("Cat", "health").AsInt(); got != 3 {
		t.Errorf("health of Cat = %v, want 3", got)
	}
	if got := of("Nobody", "x position").AsInt(); got != 0 {
		t.Errorf("x position of a missing sprite = %v, want 0", got)
	}
	if got := of("_stage_", "volume").AsDouble(); got != 100 {
		t.Errorf("stage volume = %v, want 100", got)
	}
}

func TestDistanceTo(t *testing.T) {
	p := newTestProject()
	cat := p.sprite("Cat")
	dog := p.sprite("Dog")
	dog.X, dog.Y = 30, 40
	rt, _ := p.runtime()

	if got := report(t, rt, cat, "sensing_distanceto", map[string]Value{"DISTANCETOMENU": str("Dog")}, nil); got.AsDouble() != 50 {
		t.Errorf("distance to Dog = %v, want 50", got.AsDouble())
	}
	if got := report(t, rt, cat, "sensing_distanceto", map[string]Value{"DISTANCETOMENU": str("Ghost")}, nil); got.AsInt() != 10000 {
		t.Errorf("distance to a missing sprite = %v, want 10000", got.AsInt())
	}
}
