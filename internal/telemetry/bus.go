package telemetry

import (
	"fmt"
	"net"
	"sync"

	"github.com/mite-go/loadgen/internal/journeycontext"
	"github.com/mite-go/loadgen/internal/wire"
)

// NopSender discards every envelope; useful for scenario/journey test runs
// that don't need a live collector.
type NopSender struct{}

func (NopSender) SendEnvelope(Envelope) {}

// BusClient pushes envelopes to a collector or controller over one
// persistent connection. Safe for concurrent use; writes are serialized.
type BusClient struct {
	mu   sync.Mutex
	conn net.Conn
}

// DialBus connects to a telemetry bus listener at addr.
func DialBus(addr string) (*BusClient, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dialing bus at %s: %w", addr, err)
	}
	return &BusClient{conn: conn}, nil
}

func (c *BusClient) SendEnvelope(e Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Best-effort: telemetry delivery failures must never block or crash
	// a runner's journey execution, so errors here are swallowed. A
	// future revision could count drops into a metric.
	_ = wire.WriteFrame(c.conn, wire.MsgEnvelope, e)
}

// Close releases the underlying connection.
func (c *BusClient) Close() error {
	return c.conn.Close()
}

// Listener is a function BusServer calls with every envelope it decodes
// from any of its producer connections.
type Listener func(Envelope)

// BusServer accepts telemetry connections and fans decoded envelopes out to
// registered listeners, grounded on the teacher's EventListener fan-out
// shape in internal/events/scheduler.go, generalized from scheduler events
// to telemetry frames.
type BusServer struct {
	mu        sync.RWMutex
	listeners []Listener
	ln        net.Listener
}

// NewBusServer starts listening on addr for producer connections.
func NewBusServer(addr string) (*BusServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: listening on %s: %w", addr, err)
	}
	return &BusServer{ln: ln}, nil
}

// Addr returns the server's bound address, useful when addr was ":0".
func (s *BusServer) Addr() string {
	return s.ln.Addr().String()
}

// AddListener registers fn to be called with every envelope the server
// receives.
func (s *BusServer) AddListener(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Serve accepts connections until the listener is closed.
func (s *BusServer) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func (s *BusServer) handle(conn net.Conn) {
	defer conn.Close()
	for {
		msgType, payload, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		if msgType != wire.MsgEnvelope {
			continue
		}
		var e Envelope
		if err := wire.DecodePayload(payload, &e); err != nil {
			continue
		}
		s.mu.RLock()
		listeners := append([]Listener(nil), s.listeners...)
		s.mu.RUnlock()
		for _, l := range listeners {
			l(e)
		}
	}
}

// Close stops accepting new connections.
func (s *BusServer) Close() error {
	return s.ln.Close()
}

// ContextSender adapts a telemetry Sender into journeycontext.Sender,
// filling in the envelope's uniform id fields from one grant's IDData on
// every call.
type ContextSender struct {
	Bus  Sender
	Test string
}

func (s ContextSender) Send(msgType string, idData journeycontext.IDData, fields map[string]any) {
	e := newEnvelope(msgType, fields)
	e.Test = s.Test
	e.RunnerID = idData.RunnerID
	e.Journey = idData.Journey
	e.ContextID = idData.ContextID
	e.ScenarioID = idData.ScenarioID
	e.DataID = idData.DataID
	if tx, ok := fields["transaction"].(string); ok {
		e.Transaction = tx
	}
	s.Bus.SendEnvelope(e)
}
