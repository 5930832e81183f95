package async

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Loop is a cooperative execution context: a single goroutine that runs
// scheduled tasks one at a time, in FIFO order. A connection owns one Loop and
// delivers every protocol event on it, so session and cursor state is only
// ever mutated from one goroutine and needs no locking.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}

	gid atomic.Int64
}

func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	l.gid.Store(goroutineID())
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 {
			if l.closed {
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Enqueue schedules fn to run on the loop goroutine after all previously
// enqueued tasks, even when called from the loop goroutine itself. Tasks
// enqueued after Close are dropped.
func (l *Loop) Enqueue(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Post runs fn on the loop. When called from the loop goroutine it runs fn
// immediately, so that state observed by the caller is already up to date when
// Post returns; from any other goroutine it behaves like Enqueue.
func (l *Loop) Post(fn func()) {
	if l.InLoop() {
		fn()
		return
	}
	l.Enqueue(fn)
}

// InLoop reports whether the caller is running on the loop goroutine.
func (l *Loop) InLoop() bool {
	return goroutineID() == l.gid.Load()
}

// Close stops the loop after the tasks already queued have run. It blocks
// until the loop goroutine has exited. Closing from the loop goroutine itself
// would deadlock; Close is meant for the goroutine that owns the connection.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

// goroutineID extracts the current goroutine's id from its stack header.
// The header always starts with "goroutine N [".
func goroutineID() int64 {
	var buf [32]byte
	n := runtime.Stack(buf[:], false)
	s := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return id
}
