package quiver

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quiverdb/quiver-go/async"
	qerrors "github.com/quiverdb/quiver-go/errors"
	"github.com/quiverdb/quiver-go/types"
	"github.com/quiverdb/quiver-go/wire"
)

// pendingCommand is a submitted query waiting for its turn on the connection.
type pendingCommand struct {
	req *wire.Run
	fut *async.Future[*Cursor]
}

// Session issues queries on one connection, in strict submission order. A
// query submitted from inside another query's completion listener is appended
// to the tail of the queue exactly as an external submission would be:
// ordering depends only on when Submit is called, never on which call stack
// invoked it.
//
// A connection-level failure latches the session: the in-flight and queued
// commands fail with the same transport error, and so does every later
// Submit. Cursors that had already consumed a complete result are unaffected.
type Session struct {
	conn wire.Conn
	loop *async.Loop
	log  *zap.Logger

	// queue holds submitted commands not yet written to the connection.
	queue []*pendingCommand
	// inflight holds cursors whose requests were written and whose terminal
	// marker has not arrived yet, oldest first. Response units always belong
	// to the head.
	inflight []*Cursor

	flushing bool

	// sticky failure latch. Never cleared once set.
	fatalErr error
	failedAt time.Time
}

// Option configures a session.
type Option func(*Session)

// WithLogger sets the logger used for protocol milestones. The default
// discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession wraps conn in a session. The session subscribes to the
// connection; a connection carries at most one session.
func NewSession(conn wire.Conn, opts ...Option) *Session {
	s := &Session{
		conn: conn,
		loop: conn.Loop(),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	conn.Subscribe(connHandler{s})
	return s
}

// Submit enqueues a query. The returned future completes with the query's
// cursor once the request has been written to the connection, or fails with
// the session's sticky error without the request ever being sent.
func (s *Session) Submit(query string, params map[string]types.Value) *async.Future[*Cursor] {
	fut := async.NewFuture[*Cursor](s.loop)
	req := &wire.Run{
		ID:     uuid.NewString(),
		Query:  query,
		Params: params,
	}
	s.loop.Post(func() {
		if s.fatalErr != nil {
			s.log.Debug("submit rejected, session already failed",
				zap.String("query", query),
				zap.Time("failed_at", s.failedAt))
			fut.Fail(s.fatalErr)
			return
		}
		s.queue = append(s.queue, &pendingCommand{req: req, fut: fut})
		s.flush()
	})
	return fut
}

// Close tears down the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// flush writes queued commands in order. Completing a command's future may
// run listeners that submit again; the flushing flag keeps the reentrant call
// from interleaving sends.
func (s *Session) flush() {
	if s.flushing {
		return
	}
	s.flushing = true
	defer func() { s.flushing = false }()

	for len(s.queue) > 0 && s.fatalErr == nil {
		cmd := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]

		if err := s.conn.Send(cmd.req); err != nil {
			s.fatal(qerrors.NewTransportError("request write failed", err))
			cmd.fut.Fail(s.fatalErr)
			return
		}
		s.log.Debug("query sent",
			zap.String("id", cmd.req.ID),
			zap.String("query", cmd.req.Query))

		cur := newCursor(s.loop)
		s.inflight = append(s.inflight, cur)
		cmd.fut.Complete(cur)
	}
}

func (s *Session) handleMessage(msg wire.Message) {
	if s.fatalErr != nil {
		return
	}
	if len(s.inflight) == 0 {
		s.fatal(qerrors.NewTransportError("protocol violation: response without in-flight query", nil))
		return
	}
	cur := s.inflight[0]

	switch m := msg.(type) {
	case *wire.Header:
		cur.onHeader(m.Fields)

	case *wire.Record:
		if !cur.headerSeen {
			s.fatal(qerrors.NewTransportError("protocol violation: record before stream header", nil))
			return
		}
		cur.onRecord(m.Values)

	case *wire.Summary:
		s.inflight = s.inflight[1:]
		cur.onSummary()

	case *wire.Failure:
		s.inflight = s.inflight[1:]
		// A failure before the stream header means the server rejected the
		// query before executing it.
		var err error
		if cur.headerSeen {
			err = qerrors.NewRuntimeError(m.Code, m.Message)
		} else {
			err = qerrors.NewCompileError(m.Code, m.Message)
		}
		s.log.Warn("query failed",
			zap.String("code", m.Code),
			zap.String("message", m.Message))
		cur.onFailure(err)
	}
}

func (s *Session) handleFatal(cause error) {
	if s.fatalErr != nil {
		return
	}
	s.fatal(qerrors.NewTransportError("connection lost", cause))
}

// fatal latches the session failure and fails all outstanding work: the
// in-flight cursors still awaiting their terminal marker and every queued
// command, whose requests are never sent.
func (s *Session) fatal(err error) {
	s.fatalErr = err
	s.failedAt = time.Now()
	s.log.Warn("session failed", zap.Error(err))

	inflight := s.inflight
	s.inflight = nil
	for _, cur := range inflight {
		cur.onFailure(err)
	}

	queued := s.queue
	s.queue = nil
	for _, cmd := range queued {
		cmd.fut.Fail(err)
	}
}

// connHandler adapts the session to wire.Handler without exposing the
// callbacks on the public API.
type connHandler struct {
	s *Session
}

func (h connHandler) HandleMessage(msg wire.Message) { h.s.handleMessage(msg) }
func (h connHandler) HandleFatal(err error)          { h.s.handleFatal(err) }
