package console

import (
	"sync"
	"sync/atomic"
	"time"
)

// Watchdog collects per-task liveness records. Each task feeds its own record
// on every loop iteration; an external supervisor consults Snapshot and
// decides whether to restart. No escalation happens in here.
type Watchdog struct {
	mu   sync.Mutex
	recs []*TaskRecord
}

// TaskRecord is the liveness record of a single task. Only the owning task
// calls Feed.
type TaskRecord struct {
	name    string
	window  time.Duration
	lastFed atomic.Int64 // unix nanos
}

// TaskStatus is a point-in-time view of one record.
type TaskStatus struct {
	Name    string
	Window  time.Duration
	LastFed time.Time
	Expired bool
}

func NewWatchdog() *Watchdog {
	return &Watchdog{}
}

// Register creates a record for a task that must feed at least once per
// window. The record counts as fed at registration time.
func (w *Watchdog) Register(name string, window time.Duration) *TaskRecord {
	rec := &TaskRecord{name: name, window: window}
	rec.Feed()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.recs = append(w.recs, rec)
	return rec
}

// Feed marks the task alive now.
func (t *TaskRecord) Feed() {
	t.lastFed.Store(time.Now().UnixNano())
}

// Expired reports whether the record has not been fed within its window as
// of now.
func (t *TaskRecord) Expired(now time.Time) bool {
	return now.Sub(time.Unix(0, t.lastFed.Load())) > t.window
}

// Snapshot returns the current status of every registered record.
func (w *Watchdog) Snapshot() []TaskStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	statuses := make([]TaskStatus, len(w.recs))
	for i, rec := range w.recs {
		statuses[i] = TaskStatus{
			Name:    rec.name,
			Window:  rec.window,
			LastFed: time.Unix(0, rec.lastFed.Load()),
			Expired: rec.Expired(now),
		}
	}
	return statuses
}
