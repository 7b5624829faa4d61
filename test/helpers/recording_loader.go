package helpers

import (
	"sync"
	"time"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// BlankAsset is the minimal concrete asset the RecordingLoader produces.
type BlankAsset struct {
	asset.Base
}

// RecordingLoader is an asset.Loader that counts invocations and records
// start/finish timestamps per id, so tests can assert dedup and
// dependency ordering. Delay stretches each load so ordering windows are
// wide enough to observe; FailWith makes the load for specific ids fail.
type RecordingLoader struct {
	Delay time.Duration

	mu          sync.Mutex
	invocations map[*asset.ID]int
	started     map[*asset.ID]time.Time
	finished    map[*asset.ID]time.Time
	failWith    map[*asset.ID]error
}

func NewRecordingLoader() *RecordingLoader {
	return &RecordingLoader{
		invocations: make(map[*asset.ID]int),
		started:     make(map[*asset.ID]time.Time),
		finished:    make(map[*asset.ID]time.Time),
		failWith:    make(map[*asset.ID]error),
	}
}

// FailWith makes every Load of id return err.
func (l *RecordingLoader) FailWith(id *asset.ID, err error) {
	l.mu.Lock()
	l.failWith[id] = err
	l.mu.Unlock()
}

func (l *RecordingLoader) Load(id *asset.ID, meta asset.Meta) (asset.Asset, error) {
	l.mu.Lock()
	l.invocations[id]++
	l.started[id] = time.Now()
	err := l.failWith[id]
	l.mu.Unlock()

	if l.Delay > 0 {
		time.Sleep(l.Delay)
	}

	l.mu.Lock()
	l.finished[id] = time.Now()
	l.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &BlankAsset{}, nil
}

// Invocations reports how many times id was loaded.
func (l *RecordingLoader) Invocations(id *asset.ID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.invocations[id]
}

// Started returns the last recorded load start time for id.
func (l *RecordingLoader) Started(id *asset.ID) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, ok := l.started[id]
	return ts, ok
}

// Finished returns the last recorded load finish time for id.
func (l *RecordingLoader) Finished(id *asset.ID) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, ok := l.finished[id]
	return ts, ok
}
