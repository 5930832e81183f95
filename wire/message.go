// Package wire models the messages exchanged with a quiver server and the
// ordered connection they travel on.
//
// The driver core consumes a Conn and never opens sockets itself: transport,
// TLS, handshake and pooling belong to the layer that hands out connections.
// What this package fixes is the message vocabulary and the JSON frame
// encoding used to carry it.
package wire

import "github.com/quiverdb/quiver-go/types"

// Run asks the server to execute one query. Requests sent on a connection are
// delivered to the server in order.
type Run struct {
	// ID identifies the query across log lines. It plays no role in response
	// routing: responses arrive in request order.
	ID     string
	Query  string
	Params map[string]types.Value
}

// Message is one decoded response unit. For every Run the server answers with
// either a Header followed by zero or more Records and a terminal Summary or
// Failure, or with a lone Failure when the query is rejected before
// execution.
type Message interface {
	isMessage()
}

// Header opens a result stream and names its fields.
type Header struct {
	Fields []string
}

// Record carries one row of values, in field order.
type Record struct {
	Values []types.Value
}

// Summary terminates a result stream after its last record.
type Summary struct {
	Meta map[string]string
}

// Failure terminates a query with a server-reported error. Code is the
// server's classification code.
type Failure struct {
	Code    string
	Message string
}

func (*Header) isMessage()  {}
func (*Record) isMessage()  {}
func (*Summary) isMessage() {}
func (*Failure) isMessage() {}
