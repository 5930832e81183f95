package async

import "sync"

// CombineAll returns a future that completes with the ordered results of fs
// once every one of them has completed, or fails as soon as any of them fails.
// On failure the remaining futures still run to completion; their results are
// simply discarded by the combined future.
func CombineAll[T any](loop *Loop, fs ...*Future[T]) *Future[[]T] {
	out := NewFuture[[]T](loop)
	if len(fs) == 0 {
		out.Complete(nil)
		return out
	}

	var mu sync.Mutex
	results := make([]T, len(fs))
	remaining := len(fs)
	settled := false

	for i, f := range fs {
		i := i
		f.AddListener(func(v T, err error) {
			mu.Lock()
			if settled {
				mu.Unlock()
				return
			}
			if err != nil {
				settled = true
				mu.Unlock()
				out.Fail(err)
				return
			}
			results[i] = v
			remaining--
			last := remaining == 0
			if last {
				settled = true
			}
			mu.Unlock()
			if last {
				out.Complete(results)
			}
		})
	}
	return out
}
