package sound

import (
	"errors"
	"sync"
)

var errLoadFailed = errors.New("load failed")

type engineCall struct {
	op          string
	id          ResourceID
	handle      Handle
	left, right float64
	repetitions int
}

// recordingEngine records every call in order and tracks live handles so
// tests can detect use of a stale handle.
type recordingEngine struct {
	mu       sync.Mutex
	calls    []engineCall
	next     Handle
	live     map[Handle]bool
	failLoad map[ResourceID]bool
	panicOn  string
	gate     chan struct{}
	stale    int
	released int
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{
		live:     make(map[Handle]bool),
		failLoad: make(map[ResourceID]bool),
	}
}

func (e *recordingEngine) Load(id ResourceID, priority int) (Handle, error) {
	if e.gate != nil {
		<-e.gate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, engineCall{op: "load", id: id})
	if e.panicOn == "load" {
		panic("engine exploded")
	}
	if e.failLoad[id] {
		return 0, errLoadFailed
	}
	e.next++
	e.live[e.next] = true
	return e.next, nil
}

func (e *recordingEngine) Play(h Handle, left, right float64, priority, repetitions int, rate float64) (StreamID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, engineCall{op: "play", handle: h, left: left, right: right, repetitions: repetitions})
	if e.panicOn == "play" {
		panic("engine exploded")
	}
	if !e.live[h] {
		e.stale++
	}
	return StreamID(len(e.calls)), nil
}

func (e *recordingEngine) Unload(h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, engineCall{op: "unload", handle: h})
	if e.panicOn == "unload" {
		panic("engine exploded")
	}
	if !e.live[h] {
		e.stale++
	}
	delete(e.live, h)
	return nil
}

func (e *recordingEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, engineCall{op: "release"})
	e.released++
	clear(e.live)
	return nil
}

func (e *recordingEngine) snapshot() []engineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engineCall(nil), e.calls...)
}

func (e *recordingEngine) count(op string) int {
	n := 0
	for _, c := range e.snapshot() {
		if c.op == op {
			n++
		}
	}
	return n
}

func (e *recordingEngine) staleUses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stale
}

func (e *recordingEngine) releases() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.released
}
