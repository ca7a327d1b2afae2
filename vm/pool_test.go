package vm

import "testing"

func TestClonePoolLIFO(t *testing.T) {
	p := NewClonePool(3)
	a, _ := p.Acquire()
	b, _ := p.Acquire()
	if a != 0 || b != 1 {
		t.Fatalf("acquired %d, %d; want 0, 1", a, b)
	}
	id := p.Get(a).ID
	p.Release(a)
	again, ok := p.Acquire()
	if !ok || again != a {
		t.Fatalf("re-acquired %d, want %d", again, a)
	}
	if p.Get(again).ID != id {
		t.Error("recycled slot changed identity")
	}
}

func TestClonePoolExhaustion(t *testing.T) {
	p := NewClonePool(2)
	p.Acquire()
	p.Acquire()
	if slot, ok := p.Acquire(); ok {
		t.Errorf("Acquire on a full pool = %d, want failure", slot)
	}
	p.Release(1)
	p.Release(1)
	if got := p.Available(); got != 1 {
		t.Errorf("Available after double release = %d, want 1", got)
	}
}

func TestClonePoolReleaseClearsState(t *testing.T) {
	p := NewClonePool(1)
	slot, _ := p.Acquire()
	s := p.Get(slot)
	s.Pen.Down = true
	s.Effects["ghost"] = 50
	s.Bubble = Bubble{Text: "hi"}
	s.Origin = NewSprite("o", "Origin")
	p.Release(slot)

	if !s.IsDeleted || s.Pen.Down || len(s.Effects) != 0 || s.Bubble.Text != "" || s.Origin != nil {
		t.Errorf("released slot kept state: %+v", s)
	}
}

func TestClonePoolLiveAndReset(t *testing.T) {
	p := NewClonePool(4)
	p.Acquire()
	p.Acquire()
	live := 0
	p.Live(func(int, *Sprite) { live++ })
	if live != 2 {
		t.Errorf("live = %d, want 2", live)
	}
	p.Reset()
	if p.Available() != p.Cap() {
		t.Errorf("Available after Reset = %d, want %d", p.Available(), p.Cap())
	}
}

func TestPlatformCloneLimit(t *testing.T) {
	tests := []struct {
		platform string
		want     int
	}{
		{"pc", 2000},
		{"Switch", 1500},
		{"wiiu", 800},
		{"3ds", 300},
		{"toaster", DefaultCloneLimit},
	}
	for _, tt := range tests {
		if got := PlatformCloneLimit(tt.platform); got != tt.want {
			t.Errorf("PlatformCloneLimit(%q) = %d, want %d", tt.platform, got, tt.want)
		}
	}
	if !PlatformProfile("wiiu").HardExitOnStop || PlatformProfile("pc").HardExitOnStop {
		t.Error("only wiiu should hard-exit on stop")
	}
}
