package controller

import (
	"fmt"
	"io"
	"net"

	"github.com/mite-go/loadgen/internal/scenario"
	"github.com/mite-go/loadgen/internal/wire"
)

// rpcCall serializes one decoded RPC onto the controller's single logical
// thread: every call that touches shared scenario/tracking state runs
// through this channel from one goroutine, even though each connection
// has its own reader goroutine — the spec's "no locks required in the
// core" concurrency model, expressed here as an explicit serialization
// channel rather than a mutex around Controller's own state (Controller
// already serializes internally via its collaborators' own locks; the
// channel additionally guarantees RPCs are applied one at a time and in
// receipt order across every connected runner).
type rpcCall struct {
	fn   func()
	done chan struct{}
}

// Server binds a TCP listener, accepts one connection per runner, decodes
// wire frames, dispatches them to a Controller, and writes replies.
type Server struct {
	ctrl  *Controller
	ln    net.Listener
	calls chan rpcCall
	quit  chan struct{}
}

// NewServer starts listening on addr.
func NewServer(ctrl *Controller, addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("controller: listening on %s: %w", addr, err)
	}
	s := &Server{
		ctrl:  ctrl,
		ln:    ln,
		calls: make(chan rpcCall),
		quit:  make(chan struct{}),
	}
	go s.runDispatchLoop()
	return s, nil
}

// Addr returns the server's bound address, useful when addr was ":0".
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) runDispatchLoop() {
	for {
		select {
		case <-s.quit:
			return
		case call := <-s.calls:
			call.fn()
			close(call.done)
		}
	}
}

// dispatch runs fn on the server's single logical thread and blocks until
// it completes.
func (s *Server) dispatch(fn func()) {
	done := make(chan struct{})
	s.calls <- rpcCall{fn: fn, done: done}
	<-done
}

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		msgType, payload, err := wire.ReadFrame(conn)
		if err != nil {
			if err != io.EOF {
				return
			}
			return
		}

		switch msgType {
		case wire.MsgHello:
			var reply wire.HelloReply
			s.dispatch(func() {
				runnerID, testName, cfg := s.ctrl.Hello()
				reply = wire.HelloReply{RunnerID: runnerID, TestName: testName, Config: cfg}
			})
			if err := wire.WriteFrame(conn, wire.MsgHello, reply); err != nil {
				return
			}

		case wire.MsgRequestWork:
			var args wire.RequestWorkArgs
			if err := wire.DecodePayload(payload, &args); err != nil {
				return
			}
			var reply wire.RequestWorkReply
			s.dispatch(func() {
				result := s.ctrl.RequestWork(RequestWorkParams{
					RunnerID:      args.RunnerID,
					CurrentWork:   args.CurrentWork,
					CompletedData: args.CompletedData,
					MaxWork:       args.MaxWork,
					ConfigVersion: args.ConfigVersion,
				})
				reply = wire.RequestWorkReply{
					Grants:      grantsToWire(result.Grants),
					ConfigDelta: result.ConfigDelta,
					Stop:        result.Stop,
				}
			})
			if err := wire.WriteFrame(conn, wire.MsgRequestWork, reply); err != nil {
				return
			}

		case wire.MsgBye:
			var args wire.ByeArgs
			if err := wire.DecodePayload(payload, &args); err != nil {
				return
			}
			s.dispatch(func() {
				s.ctrl.Bye(args.RunnerID)
			})
			if err := wire.WriteFrame(conn, wire.MsgBye, wire.ByeArgs{RunnerID: args.RunnerID}); err != nil {
				return
			}

		default:
			// Unknown message type: drop the connection rather than guess
			// at a reply shape.
			return
		}
	}
}

func grantsToWire(grants []scenario.Grant) []wire.Grant {
	out := make([]wire.Grant, len(grants))
	for i, g := range grants {
		out[i] = wire.Grant{
			ScenarioID:  g.ScenarioID,
			JourneyName: g.JourneyName,
			DataID:      g.DataID,
			HasData:     g.HasData,
			Args:        g.Args,
		}
	}
	return out
}

// Close stops accepting new connections and the dispatch loop.
func (s *Server) Close() error {
	close(s.quit)
	return s.ln.Close()
}
