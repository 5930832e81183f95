package quiver

import (
	"github.com/quiverdb/quiver-go/async"
	qerrors "github.com/quiverdb/quiver-go/errors"
	"github.com/quiverdb/quiver-go/types"
)

type cursorState int

const (
	// streaming: records may still arrive.
	streaming cursorState = iota
	// exhausted: the stream ended cleanly; no more records, ever.
	exhausted
	// failed: the query or the session failed; the error is sticky.
	failed
)

// recordBuffer queues decoded records between the connection and the cursor,
// in server-send order, followed by exactly one terminal marker: a summary or
// a failure.
type recordBuffer struct {
	recs []*Record
	term *terminal
}

type terminal struct {
	err error // nil means clean stream summary
}

func (b *recordBuffer) push(rec *Record) {
	if b.term != nil {
		panic(qerrors.Logicf("record pushed after terminal marker"))
	}
	b.recs = append(b.recs, rec)
}

func (b *recordBuffer) pushSummary() {
	b.pushTerminal(&terminal{})
}

func (b *recordBuffer) pushFailure(err error) {
	b.pushTerminal(&terminal{err: err})
}

func (b *recordBuffer) pushTerminal(t *terminal) {
	if b.term != nil {
		panic(qerrors.Logicf("terminal marker pushed twice"))
	}
	b.term = t
}

// pull returns the next buffered record, or nil if none is buffered.
func (b *recordBuffer) pull() *Record {
	if len(b.recs) == 0 {
		return nil
	}
	rec := b.recs[0]
	b.recs[0] = nil
	b.recs = b.recs[1:]
	return rec
}

// Cursor streams one query's result records. All state transitions happen on
// the connection loop; callers outside the loop observe them through the
// futures returned by FetchNext.
type Cursor struct {
	loop *async.Loop

	fields     []string
	headerSeen bool

	state   cursorState
	err     error
	current *Record

	buf recordBuffer
	// pending holds outstanding fetch futures, oldest first. A record pushed
	// while a fetch is outstanding satisfies it directly instead of being
	// buffered.
	pending []*async.Future[bool]
}

func newCursor(loop *async.Loop) *Cursor {
	return &Cursor{loop: loop}
}

// FetchNext requests the next record. The returned future resolves true once
// a new record is available and has become the current record, false once the
// stream is exhausted, or fails with the query or session error. After the
// cursor reaches a terminal state, FetchNext keeps returning futures with the
// same terminal outcome without issuing any protocol work.
func (c *Cursor) FetchNext() *async.Future[bool] {
	f := async.NewFuture[bool](c.loop)
	c.loop.Post(func() {
		c.serveFetch(f)
	})
	return f
}

func (c *Cursor) serveFetch(f *async.Future[bool]) {
	switch c.state {
	case exhausted:
		f.Complete(false)
		return
	case failed:
		f.Fail(c.err)
		return
	}

	if rec := c.buf.pull(); rec != nil {
		c.current = rec
		f.Complete(true)
		return
	}

	if t := c.buf.term; t != nil {
		c.settle(t)
		if c.state == failed {
			f.Fail(c.err)
		} else {
			f.Complete(false)
		}
		return
	}

	c.pending = append(c.pending, f)
}

// Current returns the record made current by the last fetch that resolved
// true. Calling it before any successful fetch, or after the cursor reached a
// terminal state, is a defect in the calling code and panics with a logic
// error.
func (c *Cursor) Current() *Record {
	switch {
	case c.state == exhausted:
		panic(qerrors.Logicf("Current called on an exhausted cursor"))
	case c.state == failed:
		panic(qerrors.Logicf("Current called on a failed cursor"))
	case c.current == nil:
		panic(qerrors.Logicf("Current called before the first successful fetch"))
	}
	return c.current
}

// Fields returns the result field names, available once the stream header has
// been received.
func (c *Cursor) Fields() []string {
	return c.fields
}

// settle applies a drained terminal marker.
func (c *Cursor) settle(t *terminal) {
	c.current = nil
	if t.err != nil {
		c.state = failed
		c.err = t.err
	} else {
		c.state = exhausted
	}
}

// The on* methods below are invoked by the session, on the loop, as response
// units arrive.

func (c *Cursor) onHeader(fields []string) {
	c.fields = fields
	c.headerSeen = true
}

func (c *Cursor) onRecord(values []types.Value) {
	rec := newRecord(c.fields, values)
	if len(c.pending) > 0 {
		f := c.popPending()
		c.current = rec
		f.Complete(true)
		return
	}
	c.buf.push(rec)
}

func (c *Cursor) onSummary() {
	c.buf.pushSummary()
	// pending fetches imply an empty buffer: resolve them all as exhausted.
	if len(c.pending) > 0 {
		c.settle(c.buf.term)
		for len(c.pending) > 0 {
			c.popPending().Complete(false)
		}
	}
}

func (c *Cursor) onFailure(err error) {
	// A cursor that already holds its terminal marker has a complete result;
	// a later session failure must not rewrite it.
	if c.state != streaming || c.buf.term != nil {
		return
	}
	c.buf.pushFailure(err)
	if len(c.pending) > 0 {
		c.settle(c.buf.term)
		for len(c.pending) > 0 {
			c.popPending().Fail(err)
		}
	}
}

func (c *Cursor) popPending() *async.Future[bool] {
	f := c.pending[0]
	c.pending[0] = nil
	c.pending = c.pending[1:]
	return f
}
