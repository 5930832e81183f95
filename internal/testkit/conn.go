// Package testkit provides an in-memory quiver server and connection for
// exercising sessions and cursors without a network. Frames still go through
// the real wire codec, and every response unit is delivered as its own task
// on the connection loop, preserving the asynchronous delivery order of a
// real connection.
package testkit

import (
	"github.com/cockroachdb/errors"

	"github.com/quiverdb/quiver-go/async"
	"github.com/quiverdb/quiver-go/wire"
)

// Conn is an in-memory wire.Conn served by a Server.
type Conn struct {
	loop    *async.Loop
	srv     *Server
	handler wire.Handler

	// mutated on the loop only
	failed bool
	closed bool
}

var _ wire.Conn = (*Conn)(nil)

// NewConn connects to srv. The connection owns a fresh loop.
func NewConn(srv *Server) *Conn {
	return &Conn{
		loop: async.NewLoop(),
		srv:  srv,
	}
}

func (c *Conn) Loop() *async.Loop {
	return c.loop
}

func (c *Conn) Subscribe(h wire.Handler) {
	c.handler = h
}

// Send encodes req, hands it to the server and queues the response frames for
// asynchronous delivery.
func (c *Conn) Send(req *wire.Run) error {
	if c.failed {
		return errors.New("connection is down")
	}
	if c.closed {
		return errors.New("connection is closed")
	}

	frame, err := wire.EncodeRun(req)
	if err != nil {
		return err
	}
	for _, raw := range c.srv.serve(frame) {
		raw := raw
		c.loop.Enqueue(func() {
			c.deliver(raw)
		})
	}
	return nil
}

func (c *Conn) deliver(raw []byte) {
	if c.failed || c.closed || c.handler == nil {
		return
	}
	msg, err := wire.DecodeMessage(raw)
	if err != nil {
		// An undecodable frame surfaces as an ordinary failure on the query
		// it belongs to.
		c.handler.HandleMessage(&wire.Failure{
			Code:    "Quiver.ClientError.Request.InvalidFormat",
			Message: err.Error(),
		})
		return
	}
	c.handler.HandleMessage(msg)
}

// Interrupt simulates losing the connection: undelivered frames are dropped
// and the handler observes a fatal transport event.
func (c *Conn) Interrupt(cause error) {
	c.loop.Post(func() {
		if c.failed || c.closed {
			return
		}
		c.failed = true
		if c.handler != nil {
			c.handler.HandleFatal(cause)
		}
	})
}

func (c *Conn) Close() error {
	c.loop.Post(func() {
		c.closed = true
	})
	c.loop.Close()
	return nil
}
