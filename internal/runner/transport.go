// Package runner implements the runner process: it bootstraps once
// against a controller, then loops request_work -> spawn grants -> wait
// -> collect completions until told to stop, drains any in-flight
// journeys, and says goodbye.
//
// Grounded on original_source/mite/runner.py's Runner.run/_execute.
package runner

import (
	"context"
	"fmt"
	"net"

	"github.com/mite-go/loadgen/internal/wire"
)

// HelloReply is the runner-side view of a controller's hello response.
type HelloReply struct {
	RunnerID uint64
	TestName string
	Config   []wire.ConfigKV
}

// RequestWorkReply is the runner-side view of a controller's
// request_work response.
type RequestWorkReply struct {
	Grants      []wire.Grant
	ConfigDelta []wire.ConfigKV
	Stop        bool
}

// Transport is everything a Runner needs from its connection to the
// controller, so the run loop can be tested against a fake.
type Transport interface {
	Hello(ctx context.Context) (HelloReply, error)
	RequestWork(ctx context.Context, args wire.RequestWorkArgs) (RequestWorkReply, error)
	Bye(ctx context.Context, runnerID uint64) error
	Close() error
}

// NetTransport implements Transport over one persistent connection
// framed with internal/wire.
type NetTransport struct {
	conn net.Conn
}

// DialController connects to a controller listening at addr.
func DialController(addr string) (*NetTransport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("runner: dialing controller at %s: %w", addr, err)
	}
	return &NetTransport{conn: conn}, nil
}

func (t *NetTransport) Hello(ctx context.Context) (HelloReply, error) {
	if err := wire.WriteFrame(t.conn, wire.MsgHello, wire.HelloArgs{}); err != nil {
		return HelloReply{}, err
	}
	msgType, payload, err := wire.ReadFrame(t.conn)
	if err != nil {
		return HelloReply{}, err
	}
	if msgType != wire.MsgHello {
		return HelloReply{}, fmt.Errorf("runner: expected hello reply, got message type %d", msgType)
	}
	var reply wire.HelloReply
	if err := wire.DecodePayload(payload, &reply); err != nil {
		return HelloReply{}, err
	}
	return HelloReply{RunnerID: reply.RunnerID, TestName: reply.TestName, Config: reply.Config}, nil
}

func (t *NetTransport) RequestWork(ctx context.Context, args wire.RequestWorkArgs) (RequestWorkReply, error) {
	if err := wire.WriteFrame(t.conn, wire.MsgRequestWork, args); err != nil {
		return RequestWorkReply{}, err
	}
	msgType, payload, err := wire.ReadFrame(t.conn)
	if err != nil {
		return RequestWorkReply{}, err
	}
	if msgType != wire.MsgRequestWork {
		return RequestWorkReply{}, fmt.Errorf("runner: expected request_work reply, got message type %d", msgType)
	}
	var reply wire.RequestWorkReply
	if err := wire.DecodePayload(payload, &reply); err != nil {
		return RequestWorkReply{}, err
	}
	return RequestWorkReply{Grants: reply.Grants, ConfigDelta: reply.ConfigDelta, Stop: reply.Stop}, nil
}

func (t *NetTransport) Bye(ctx context.Context, runnerID uint64) error {
	if err := wire.WriteFrame(t.conn, wire.MsgBye, wire.ByeArgs{RunnerID: runnerID}); err != nil {
		return err
	}
	_, _, err := wire.ReadFrame(t.conn)
	return err
}

func (t *NetTransport) Close() error {
	return t.conn.Close()
}
