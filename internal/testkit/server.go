package testkit

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver-go/types"
	"github.com/quiverdb/quiver-go/wire"
)

const (
	codeSyntaxError    = "Quiver.ClientError.Statement.SyntaxError"
	codeInvalidRequest = "Quiver.ClientError.Request.Invalid"
)

// HandlerFunc produces the response units for one query. Handlers run
// synchronously while the request is served and may read and mutate the
// server store; the returned messages are delivered to the client
// asynchronously, in order.
type HandlerFunc func(params map[string]types.Value, store *Store) []wire.Message

// Server is a scriptable in-memory quiver server. Queries it has no handler
// for fail with a syntax error, which mirrors how a real server rejects
// malformed statements.
type Server struct {
	store    *Store
	handlers map[string]HandlerFunc

	mu      sync.Mutex
	queries []string
}

// NewServer returns a server with a fresh in-memory store. The store is
// closed when the test finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	store, err := OpenStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return &Server{
		store:    store,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers the handler for an exact query text. Registration must
// happen before the query is submitted.
func (s *Server) Handle(query string, fn HandlerFunc) {
	s.handlers[query] = fn
}

// Store returns the server's backing store, for seeding and assertions.
func (s *Server) Store() *Store {
	return s.store
}

// Queries returns the query texts received so far, in arrival order.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// serve decodes one request frame and returns the encoded response frames.
func (s *Server) serve(frame []byte) [][]byte {
	req, err := wire.DecodeRun(frame)
	if err != nil {
		return encodeAll(&wire.Failure{Code: codeInvalidRequest, Message: err.Error()})
	}

	s.mu.Lock()
	s.queries = append(s.queries, req.Query)
	s.mu.Unlock()

	fn, ok := s.handlers[req.Query]
	if !ok {
		return encodeAll(&wire.Failure{
			Code:    codeSyntaxError,
			Message: fmt.Sprintf("invalid input %q", req.Query),
		})
	}
	return encodeAll(fn(req.Params, s.store)...)
}

func encodeAll(msgs ...wire.Message) [][]byte {
	frames := make([][]byte, 0, len(msgs))
	for _, msg := range msgs {
		raw, err := wire.EncodeMessage(msg)
		if err != nil {
			raw, _ = wire.EncodeMessage(&wire.Failure{
				Code:    codeInvalidRequest,
				Message: err.Error(),
			})
		}
		frames = append(frames, raw)
	}
	return frames
}

// Stream builds the response units of a successful query: a header, one
// record per row and a summary.
func Stream(fields []string, rows ...[]types.Value) []wire.Message {
	msgs := make([]wire.Message, 0, len(rows)+2)
	msgs = append(msgs, &wire.Header{Fields: fields})
	for _, row := range rows {
		msgs = append(msgs, &wire.Record{Values: row})
	}
	msgs = append(msgs, &wire.Summary{})
	return msgs
}

// StreamThenFail builds a stream that delivers the given rows and then fails
// mid-execution instead of terminating with a summary.
func StreamThenFail(fields []string, rows [][]types.Value, code, message string) []wire.Message {
	msgs := make([]wire.Message, 0, len(rows)+2)
	msgs = append(msgs, &wire.Header{Fields: fields})
	for _, row := range rows {
		msgs = append(msgs, &wire.Record{Values: row})
	}
	msgs = append(msgs, &wire.Failure{Code: code, Message: message})
	return msgs
}

// Reject builds the lone failure answering a query the server refuses to
// execute.
func Reject(code, message string) []wire.Message {
	return []wire.Message{&wire.Failure{Code: code, Message: message}}
}
