package vm

import (
	"math"
	"testing"
)

func boxSprite(name string, x, y, w, h float64) *Sprite {
	s := NewSprite(name, name)
	s.X, s.Y = x, y
	s.Width, s.Height = w, h
	s.RotationCenterX, s.RotationCenterY = w/2, h/2
	return s
}

func near(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestCollisionPoints(t *testing.T) {
	s := boxSprite("a", 10, 20, 40, 20)
	got := CollisionPoints(s)
	want := [4]Point{{-10, 30}, {30, 30}, {30, 10}, {-10, 10}}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("corner %d = %v, want %v", i, got[i], want[i])
		}
	}

	// Facing up rotates the box a quarter turn.
	s.Direction = 0
	got = CollisionPoints(s)
	if w := got[1].X - got[0].X; math.Abs(w) > 1e-9 {
		t.Errorf("rotated top edge spans %v in x, want 0", w)
	}

	// "don't rotate" ignores direction.
	s.RotationStyle = DontRotate
	got = CollisionPoints(s)
	if !near(got[0], want[0]) {
		t.Errorf("don't-rotate corner = %v, want %v", got[0], want[0])
	}
}

func TestCollisionPointsLeftRight(t *testing.T) {
	pts := func(direction float64) [4]Point {
		s := boxSprite("a", 0, 0, 40, 20)
		s.RotationCenterX = 10
		s.RotationStyle = LeftRight
		s.Direction = direction
		return CollisionPoints(s)
	}
	left, right := pts(-90), pts(90)
	for _, tt := range []struct {
		direction float64
		want      [4]Point
	}{
		{45, right},
		{0, left},
		{-30, left},
		{180, right},
	} {
		got := pts(tt.direction)
		for i := range got {
			if !near(got[i], tt.want[i]) {
				t.Errorf("direction %v corner %d = %v, want %v", tt.direction, i, got[i], tt.want[i])
			}
		}
	}
}

func TestCollisionPointsDoubleSize(t *testing.T) {
	s := boxSprite("a", 0, 0, 10, 10)
	s.Size = 200
	got := CollisionPoints(s)
	if !near(got[1], Point{10, 10}) {
		t.Errorf("corner = %v, want (10, 10)", got[1])
	}
}

func collisionRuntime(sprites ...*Sprite) *Runtime {
	p := newTestProject()
	p.sprites = append(p.sprites, sprites...)
	rt, _ := p.runtime()
	return rt
}

func TestMouseCollision(t *testing.T) {
	s := boxSprite("a", 0, 0, 20, 20)
	rt := collisionRuntime(s)

	rt.mouse = Point{5, 5}
	if !rt.IsColliding("mouse", s, nil, "") {
		t.Error("mouse inside sprite not colliding")
	}
	rt.mouse = Point{50, 50}
	if rt.IsColliding("mouse", s, nil, "") {
		t.Error("mouse outside sprite colliding")
	}
}

func TestEdgeCollision(t *testing.T) {
	s := boxSprite("a", 0, 0, 20, 20)
	rt := collisionRuntime(s)
	if rt.IsColliding("edge", s, nil, "") {
		t.Error("centered sprite touching edge")
	}
	s.X = 240
	if !rt.IsColliding("edge", s, nil, "") {
		t.Error("sprite on right edge not touching")
	}
}

func TestSpriteCollision(t *testing.T) {
	a := boxSprite("a", 0, 0, 20, 20)
	b := boxSprite("b", 15, 5, 20, 20)
	c := boxSprite("c", 100, 100, 20, 20)
	rt := collisionRuntime(a, b, c)

	if !rt.IsColliding("sprite", a, nil, "b") {
		t.Error("overlapping sprites not colliding")
	}
	if rt.IsColliding("sprite", a, nil, "c") {
		t.Error("disjoint sprites colliding")
	}
	if rt.IsColliding("sprite", a, nil, "a") {
		t.Error("sprite collides with itself")
	}
	b.Visible = false
	if rt.IsColliding("sprite", a, b, "") {
		t.Error("hidden sprite colliding")
	}
}

func TestFenceKeepsSliver(t *testing.T) {
	tests := []struct {
		x, y         float64
		wantX, wantY float64
	}{
		{1000, 0, 245, 0},
		{-1000, 0, -245, 0},
		{0, 1000, 0, 185},
		{0, -1000, 0, -185},
		{100, 50, 100, 50},
	}
	for _, tt := range tests {
		s := boxSprite("a", tt.x, tt.y, 20, 20)
		fence(s, 480, 360)
		if s.X != tt.wantX || s.Y != tt.wantY {
			t.Errorf("fence(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, s.X, s.Y, tt.wantX, tt.wantY)
		}
	}
}
