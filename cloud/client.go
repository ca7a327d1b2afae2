// Package cloud syncs a project's cloud variables with a Scratch cloud-data
// server and keeps their last values in a local SQLite store.
package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/tliron/commonlog"

	"github.com/chazu/scratchvm/vm"
)

var log = commonlog.GetLogger("scratchvm.cloud")

const (
	writeWait     = 10 * time.Second
	minBackoff    = time.Second
	maxBackoff    = 30 * time.Second
	outboxSize    = 256
	userAgentName = "scratchvm"
)

// ErrNoSink is returned by Run when the client was never attached to a runtime.
var ErrNoSink = errors.New("cloud client has no sink")

// Sink receives inbound variable changes. *vm.Runtime implements it.
type Sink interface {
	QueueCloudUpdate(name string, value vm.Value)
}

// Config describes the connection.
type Config struct {
	// URL is the websocket endpoint. Empty means offline: values are only
	// kept in the store.
	URL       string
	Origin    string
	ProjectID string
	Username  string
	Store     *Store
}

// message is one line of the cloud-data protocol.
type message struct {
	Method    string `json:"method"`
	User      string `json:"user,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Value     any    `json:"value,omitempty"`
}

// Client is a cloud-data connection. It implements vm.CloudHook.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	out    chan message

	mu        sync.Mutex
	sink      Sink
	connected bool
}

// NewClient returns a client for cfg. Attach a sink before calling Run.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		out:    make(chan message, outboxSize),
	}
}

// Attach sets the receiver of inbound changes.
func (c *Client) Attach(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = s
}

// Connected reports whether a server session is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) currentSink() Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink
}

// CloudVariableChanged stores the new value and queues it for the server.
// It never blocks the caller.
func (c *Client) CloudVariableChanged(name string, value vm.Value) {
	text := value.AsString()
	if c.cfg.Store != nil {
		if err := c.cfg.Store.Set(c.cfg.ProjectID, name, text); err != nil {
			log.Warningf("%s", err)
		}
	}
	if c.cfg.URL == "" {
		return
	}
	m := message{Method: "set", User: c.cfg.Username, ProjectID: c.cfg.ProjectID, Name: name, Value: text}
	select {
	case c.out <- m:
	default:
		log.Warningf("cloud update for %s dropped: outbox full", name)
	}
}

// Run restores stored values into the sink, then keeps a server session
// open until ctx is done, reconnecting with backoff. It returns nil on
// cancellation.
func (c *Client) Run(ctx context.Context) error {
	sink := c.currentSink()
	if sink == nil {
		return ErrNoSink
	}
	if err := c.restore(sink); err != nil {
		log.Warningf("cannot restore cloud variables: %s", err)
	}
	if c.cfg.URL == "" {
		log.Info("cloud variables are offline")
		return nil
	}

	backoff := minBackoff
	for {
		connected, err := c.session(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = minBackoff
		}
		log.Warningf("cloud connection lost: %s; retrying in %s", err, backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (c *Client) restore(sink Sink) error {
	if c.cfg.Store == nil {
		return nil
	}
	values, err := c.cfg.Store.All(c.cfg.ProjectID)
	if err != nil {
		return err
	}
	for name, value := range values {
		sink.QueueCloudUpdate(name, vm.ParseLiteral(value))
	}
	if len(values) > 0 {
		log.Infof("restored %d cloud variables", len(values))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

func (c *Client) session(ctx context.Context, sink Sink) (bool, error) {
	header := http.Header{}
	header.Set("User-Agent", userAgentName)
	if c.cfg.Origin != "" {
		header.Set("Origin", c.cfg.Origin)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()

	hello := message{Method: "handshake", User: c.cfg.Username, ProjectID: c.cfg.ProjectID}
	if err := c.write(conn, hello); err != nil {
		return false, err
	}
	c.setConnected(true)
	defer c.setConnected(false)
	log.Infof("connected to %s as %s", c.cfg.URL, c.cfg.Username)

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(conn, sink)
	}()

	for {
		select {
		case <-ctx.Done():
			bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			conn.WriteControl(websocket.CloseMessage, bye, time.Now().Add(writeWait))
			return true, ctx.Err()
		case err := <-readErr:
			return true, err
		case m := <-c.out:
			if err := c.write(conn, m); err != nil {
				return true, err
			}
		}
	}
}

func (c *Client) write(conn *websocket.Conn, m message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", m.Method, err)
	}
	data = append(data, '\n')
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("sending %s: %w", m.Method, err)
	}
	return nil
}

// readLoop handles inbound frames. One frame may carry several
// newline-separated messages.
func (c *Client) readLoop(conn *websocket.Conn, sink Sink) error {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		for _, line := range bytes.Split(payload, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			c.handle(line, sink)
		}
	}
}

func (c *Client) handle(line []byte, sink Sink) {
	var m message
	if err := json.Unmarshal(line, &m); err != nil {
		log.Warningf("malformed cloud message %q: %s", line, err)
		return
	}
	if m.Method != "set" {
		log.Debugf("ignoring cloud message %s", m.Method)
		return
	}
	value := vm.ParseLiteral(m.Value)
	if c.cfg.Store != nil {
		if err := c.cfg.Store.Set(c.cfg.ProjectID, m.Name, value.AsString()); err != nil {
			log.Warningf("%s", err)
		}
	}
	sink.QueueCloudUpdate(m.Name, value)
}
