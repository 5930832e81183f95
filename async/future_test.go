package async

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	qerrors "github.com/quiverdb/quiver-go/errors"
)

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func requireLogicPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value is not an error: %v", r)
		require.True(t, qerrors.IsLogicError(err), "expected a logic error, got %v", err)
	}()
	fn()
}

func TestFutureCompleteDeliversValue(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	f := NewFuture[int](l)
	l.Enqueue(func() {
		f.Complete(42)
	})

	v, err := f.Await(awaitCtx(t))
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestFutureFailDeliversError(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	boom := errors.New("boom")
	f := NewFuture[int](l)
	l.Enqueue(func() {
		f.Fail(boom)
	})

	_, err := f.Await(awaitCtx(t))
	require.ErrorIs(t, err, boom)
}

func TestFutureCompleteTwicePanics(t *testing.T) {
	f := NewFuture[int](nil)
	f.Complete(1)
	requireLogicPanic(t, func() {
		f.Complete(2)
	})
}

func TestFutureFailAfterCompletePanics(t *testing.T) {
	f := NewFuture[int](nil)
	f.Complete(1)
	requireLogicPanic(t, func() {
		f.Fail(errors.New("too late"))
	})
}

func TestFutureListenerRunsOnCompletingContext(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	f := NewFuture[int](l)
	onLoop := make(chan bool, 1)
	f.AddListener(func(v int, err error) {
		onLoop <- l.InLoop()
	})

	l.Enqueue(func() {
		f.Complete(7)
	})
	require.True(t, <-onLoop)
}

func TestFutureLateListenerRunsSynchronously(t *testing.T) {
	f := NewFuture[string](nil)
	f.Complete("done")

	var got string
	f.AddListener(func(v string, err error) {
		got = v
	})
	// the listener must have run before AddListener returned
	require.Equal(t, "done", got)
}

func TestFutureListenersFireInRegistrationOrder(t *testing.T) {
	f := NewFuture[int](nil)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		f.AddListener(func(int, error) {
			order = append(order, i)
		})
	}
	f.Complete(1)
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestFutureAwaitFromLoopPanics(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	f := NewFuture[int](l)
	panicked := make(chan bool, 1)
	l.Enqueue(func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			panicked <- ok && qerrors.IsLogicError(err)
		}()
		f.Await(context.Background())
	})
	require.True(t, <-panicked)
}

func TestFutureAwaitHonorsContext(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	f := NewFuture[int](l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, f.Completed())

	// the future is still usable afterwards
	l.Enqueue(func() {
		f.Complete(9)
	})
	v, err := f.Await(awaitCtx(t))
	require.NoError(t, err)
	require.Equal(t, 9, v)
}

func TestResolvedAndFailed(t *testing.T) {
	v, err := Resolved(nil, 5).Await(awaitCtx(t))
	require.NoError(t, err)
	require.Equal(t, 5, v)

	boom := errors.New("boom")
	_, err = Failed[int](nil, boom).Await(awaitCtx(t))
	require.ErrorIs(t, err, boom)
}

func TestCombineAllCompletesWithOrderedResults(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	fs := []*Future[int]{NewFuture[int](l), NewFuture[int](l), NewFuture[int](l)}
	out := CombineAll(l, fs...)

	// complete out of order
	l.Enqueue(func() {
		fs[2].Complete(30)
		fs[0].Complete(10)
		fs[1].Complete(20)
	})

	vs, err := out.Await(awaitCtx(t))
	require.NoError(t, err)
	require.Equal(t, []int{10, 20, 30}, vs)
}

func TestCombineAllFailsOnFirstFailure(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	boom := errors.New("boom")
	fs := []*Future[int]{NewFuture[int](l), NewFuture[int](l)}
	out := CombineAll(l, fs...)

	l.Enqueue(func() {
		fs[1].Fail(boom)
		// the remaining future still completes; its result is discarded
		fs[0].Complete(1)
	})

	_, err := out.Await(awaitCtx(t))
	require.ErrorIs(t, err, boom)
}

func TestCombineAllEmpty(t *testing.T) {
	vs, err := CombineAll[int](nil).Await(awaitCtx(t))
	require.NoError(t, err)
	require.Empty(t, vs)
}
