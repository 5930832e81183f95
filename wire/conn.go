package wire

import "github.com/quiverdb/quiver-go/async"

// Conn is an ordered, full-duplex message channel to a quiver server. An
// implementation owns the cooperative execution context (see async.Loop) on
// which it delivers every response unit and fatal event; sessions and cursors
// mutate their state exclusively on that loop.
type Conn interface {
	// Loop returns the connection's cooperative execution context.
	Loop() *async.Loop

	// Subscribe registers the handler that receives decoded response units
	// and fatal transport events. It must be called before the first Send.
	Subscribe(Handler)

	// Send queues req for transmission. Requests are delivered to the peer in
	// Send order. Send must be called from the loop goroutine; it returns an
	// error only when the request cannot be written, which the caller must
	// treat as a transport failure.
	Send(*Run) error

	// Close tears the connection down. Pending responses are dropped.
	Close() error
}

// Handler receives protocol events. Both methods are invoked on the
// connection's loop, one event at a time, in delivery order.
type Handler interface {
	// HandleMessage delivers one response unit for the oldest in-flight
	// request.
	HandleMessage(Message)

	// HandleFatal reports a connection-level failure: peer reset, I/O error
	// or protocol violation. The connection is unusable afterwards.
	HandleFatal(error)
}
