package cloud

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/chazu/scratchvm/vm"
)

type update struct {
	name  string
	value vm.Value
}

type fakeSink struct {
	updates chan update
}

func newFakeSink() *fakeSink { return &fakeSink{updates: make(chan update, 16)} }

func (s *fakeSink) QueueCloudUpdate(name string, value vm.Value) {
	s.updates <- update{name, value}
}

func (s *fakeSink) next(t *testing.T) update {
	t.Helper()
	select {
	case u := <-s.updates:
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a cloud update")
	}
	return update{}
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

func TestProjectID(t *testing.T) {
	if got, want := ProjectID(nil), "Scratch-3DS/hash-cbf29ce484222325"; got != want {
		t.Errorf("ProjectID(empty) = %q, want %q", got, want)
	}
	a, b := ProjectID([]byte(`{"targets":[]}`)), ProjectID([]byte(`{"targets":[1]}`))
	if a == b {
		t.Error("different projects share an id")
	}
	if a != ProjectID([]byte(`{"targets":[]}`)) {
		t.Error("ProjectID is not deterministic")
	}
}

func TestUsername(t *testing.T) {
	dir := t.TempDir()
	first, err := Username(dir)
	if err != nil {
		t.Fatalf("Username: %v", err)
	}
	if !regexp.MustCompile(`^player\d{7}$`).MatchString(first) {
		t.Errorf("generated username = %q", first)
	}
	again, err := Username(dir)
	if err != nil || again != first {
		t.Errorf("second Username = %q, %v; want %q", again, err, first)
	}

	other := t.TempDir()
	if err := os.WriteFile(filepath.Join(other, UsernameFile), []byte("ada\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got, _ := Username(other); got != "ada" {
		t.Errorf("stored username = %q, want ada", got)
	}
}

func TestHasCloudVariables(t *testing.T) {
	stage := vm.NewSprite("stage", "Stage")
	stage.IsStage = true
	p := &vm.Project{Sprites: []*vm.Sprite{stage}}
	if HasCloudVariables(p) {
		t.Error("project without variables reported cloud")
	}
	stage.Variables["v"] = &vm.Variable{ID: "v", Name: "☁ score", Cloud: true}
	if !HasCloudVariables(p) {
		t.Error("cloud variable not detected")
	}
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "nested", "cloud.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	s := openStore(t)
	if _, err := s.Get("p", "☁ score"); !errors.Is(err, ErrVariableNotFound) {
		t.Errorf("Get on empty store = %v, want ErrVariableNotFound", err)
	}
	if err := s.Set("p", "☁ score", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("p", "☁ score", "2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("other", "☁ score", "99"); err != nil {
		t.Fatal(err)
	}
	if got, err := s.Get("p", "☁ score"); err != nil || got != "2" {
		t.Errorf("Get = %q, %v; want 2", got, err)
	}
	all, err := s.All("p")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all["☁ score"] != "2" {
		t.Errorf("All = %v", all)
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

func TestClientRequiresSink(t *testing.T) {
	if err := NewClient(Config{}).Run(context.Background()); !errors.Is(err, ErrNoSink) {
		t.Errorf("Run without sink = %v, want ErrNoSink", err)
	}
}

func TestClientOffline(t *testing.T) {
	store := openStore(t)
	if err := store.Set("proj", "☁ high", "12"); err != nil {
		t.Fatal(err)
	}
	c := NewClient(Config{ProjectID: "proj", Store: store})
	sink := newFakeSink()
	c.Attach(sink)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("offline Run = %v", err)
	}
	if u := sink.next(t); u.name != "☁ high" || u.value.AsInt() != 12 {
		t.Errorf("restored %s = %v", u.name, u.value.AsString())
	}

	c.CloudVariableChanged("☁ high", vm.FromInt(13))
	if got, _ := store.Get("proj", "☁ high"); got != "13" {
		t.Errorf("stored value = %q, want 13", got)
	}
}

func TestClientSession(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan message, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != userAgentName {
			t.Errorf("User-Agent = %q", ua)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"method":"set","name":"☁ score","value":"42"}`+"\n"+`{"method":"set","name":"☁ lives","value":3}`+"\n"))
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m message
			if err := json.Unmarshal(data, &m); err != nil {
				t.Errorf("bad client message %q: %v", data, err)
				return
			}
			received <- m
		}
	}))
	defer srv.Close()

	store := openStore(t)
	c := NewClient(Config{
		URL:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		ProjectID: "proj",
		Username:  "player0000001",
		Store:     store,
	})
	sink := newFakeSink()
	c.Attach(sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	hello := <-received
	if hello.Method != "handshake" || hello.User != "player0000001" || hello.ProjectID != "proj" {
		t.Errorf("handshake = %+v", hello)
	}
	if u := sink.next(t); u.name != "☁ score" || u.value.AsInt() != 42 {
		t.Errorf("first update = %s %s", u.name, u.value.AsString())
	}
	if u := sink.next(t); u.name != "☁ lives" || u.value.AsInt() != 3 {
		t.Errorf("second update = %s %s", u.name, u.value.AsString())
	}

	c.CloudVariableChanged("☁ score", vm.FromInt(43))
	select {
	case m := <-received:
		if m.Method != "set" || m.Name != "☁ score" || m.Value != "43" {
			t.Errorf("outbound = %+v", m)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the set")
	}
	if got, _ := store.Get("proj", "☁ lives"); got != "3" {
		t.Errorf("inbound value not stored: %q", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run after cancel = %v", err)
	}
}
