package async

import "sync"

// Async is an untyped, copyable handle to a StateBase. It is the currency
// passed around for dependency gating and joins, where only the terminal
// status matters, not the payload.
type Async struct {
	state StateBase
}

// Null returns the zero Async: already-Ok, with no underlying state.
func Null() Async { return Async{} }

func (a Async) IsNull() bool { return a.state == nil }

func (a Async) Status() Status {
	if a.state == nil {
		return StatusOk
	}
	return a.state.Status()
}

func (a Async) IsCompleted() bool { return a.IsNull() || a.state.IsCompleted() }
func (a Async) IsOk() bool        { return a.IsNull() || a.state.IsOk() }
func (a Async) IsFailed() bool    { return !a.IsNull() && a.state.IsFailed() }

func (a Async) WaitCompleted() {
	if a.state != nil {
		a.state.WaitCompleted()
	}
}

// AddOnStatus registers cb to run with the terminal status, without
// exposing the underlying result type. It is implemented with an internal
// watcher state rather than a typed callback list, since Async has erased
// its payload type.
func (a Async) AddOnStatus(cb func(Status)) {
	if cb == nil {
		return
	}
	if a.state == nil {
		cb(StatusOk)
		return
	}
	a.state.AddDependency(newStatusWatcher(cb))
}

type statusWatcher struct {
	*AsyncState[struct{}]
	cb func(Status)
}

func newStatusWatcher(cb func(Status)) *statusWatcher {
	return &statusWatcher{AsyncState: NewState[struct{}](), cb: cb}
}

func (w *statusWatcher) notify(status Status, _ StateBase) {
	w.cb(status)
}

// AsyncResult is the typed producer/consumer handle for a value of type T.
// Unlike Async it can be used to set the result and to read it back.
type AsyncResult[T any] struct {
	state *AsyncState[T]
}

func NewAsyncResult[T any]() AsyncResult[T] {
	return AsyncResult[T]{state: NewState[T]()}
}

func (r AsyncResult[T]) Status() Status       { return r.state.Status() }
func (r AsyncResult[T]) IsCompleted() bool    { return r.state.IsCompleted() }
func (r AsyncResult[T]) IsOk() bool           { return r.state.IsOk() }
func (r AsyncResult[T]) IsFailed() bool       { return r.state.IsFailed() }
func (r AsyncResult[T]) WaitCompleted()       { r.state.WaitCompleted() }
func (r AsyncResult[T]) Result() (T, bool)    { return r.state.Result() }
func (r AsyncResult[T]) SetResult(v T)        { r.state.SetResult(v) }
func (r AsyncResult[T]) SetFailed()           { r.state.SetFailed() }
func (r AsyncResult[T]) AddOnCompletion(cb func(Status, T)) {
	r.state.AddOnCompletion(cb)
}

// AsAsync erases the result type, producing a handle usable with Join and
// dependency gating.
func (r AsyncResult[T]) AsAsync() Async { return Async{state: r.state} }

// joinState is the internal composite AsyncState that backs Join: it
// counts completions of its inputs and resolves exactly once, the first
// time either every input has succeeded or any input has failed.
type joinState struct {
	*AsyncState[int]

	mu        sync.Mutex
	toWait    int
	okCount   int
	failCount int
	resolved  bool
}

func newJoinState(toWait int) *joinState {
	return &joinState{AsyncState: NewState[int](), toWait: toWait}
}

// notify implements join's counting: the first input failure resolves the
// join Failed; reaching toWait successes with no failure seen resolves it
// Ok. The resolved flag is set in the same critical section that decides
// the winner, so exactly one of SetFailed/SetResult below ever runs.
func (j *joinState) notify(status Status, _ StateBase) {
	fail := false

	j.mu.Lock()
	if j.resolved {
		j.mu.Unlock()
		return
	}
	switch status {
	case StatusOk:
		j.okCount++
		if j.okCount == j.toWait {
			j.resolved = true
		}
	case StatusFailed:
		j.failCount++
		j.resolved = true
		fail = true
	}
	resolved := j.resolved
	j.mu.Unlock()

	if !resolved {
		return
	}
	if fail {
		j.AsyncState.SetFailed()
	} else {
		j.AsyncState.SetResult(j.toWait)
	}
}

// Join returns an Async that completes Ok once every non-null input in
// deps has completed Ok, or Failed as soon as any input fails. Null
// entries are ignored. Joining zero (or all-null) inputs returns an
// already-Ok Async.
func Join(deps []Async) Async {
	live := make([]Async, 0, len(deps))
	for _, d := range deps {
		if !d.IsNull() {
			live = append(live, d)
		}
	}
	if len(live) == 0 {
		st := NewState[int]()
		st.SetResult(0)
		return Async{state: st}
	}

	js := newJoinState(len(live))
	for _, d := range live {
		d.state.AddDependency(js)
	}
	return Async{state: js}
}
