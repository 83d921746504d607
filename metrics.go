package main

import (
	"slices"
	"sync"
	"time"

	"led-console/console"
)

// MetricsDB holds in-memory time series of pipeline gauges: queue depths and
// byte-relay fill, sampled periodically. Entries per key are kept sorted by
// time (the sampler inserts monotonically, so appends dominate).
type MetricsDB struct {
	mu   sync.RWMutex
	data map[string][]metricSample
}

type metricSample struct {
	t int64 // unix nanos
	v float64
}

func NewMetricsDB() *MetricsDB {
	return &MetricsDB{data: make(map[string][]metricSample)}
}

// Record inserts one sample. A sample at an exactly matching (key, time)
// overwrites the previous value.
func (db *MetricsDB) Record(key string, tm time.Time, v float64) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := metricSample{t: tm.UnixNano(), v: v}
	samples := db.data[key]
	if len(samples) == 0 || s.t > samples[len(samples)-1].t {
		db.data[key] = append(samples, s)
		return
	}

	i, found := slices.BinarySearchFunc(samples, s.t, func(e metricSample, t int64) int {
		switch {
		case e.t < t:
			return -1
		case e.t > t:
			return 1
		}
		return 0
	})
	if found {
		samples[i] = s
	} else {
		db.data[key] = slices.Insert(samples, i, s)
	}
}

// latestInWindow returns the newest sample with t in [start, end], or nil.
func latestInWindow(samples []metricSample, start, end int64) *metricSample {
	i, _ := slices.BinarySearchFunc(samples, end, func(e metricSample, t int64) int {
		switch {
		case e.t < t:
			return -1
		case e.t > t:
			return 1
		}
		return 0
	})
	i = min(i, len(samples)-1)
	for ; i >= 0; i-- {
		t := samples[i].t
		if t < start {
			return nil
		}
		if t <= end {
			return &samples[i]
		}
	}
	return nil
}

// QueryRanges samples each key at start, start+step, ... up to end. For each
// sample timestamp T the newest original sample in [T-step, T] is returned;
// nil marks a gap. No interpolation between samples.
func (db *MetricsDB) QueryRanges(keys []string, start, end time.Time, step time.Duration) ([]time.Time, map[string][]*float64) {
	var sampleTs []int64
	for t := start.UnixNano(); t <= end.UnixNano(); t += step.Nanoseconds() {
		sampleTs = append(sampleTs, t)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	tms := make([]time.Time, len(sampleTs))
	for i, t := range sampleTs {
		tms[i] = time.Unix(0, t)
	}
	valsMap := make(map[string][]*float64)
	for _, key := range keys {
		vals := make([]*float64, len(sampleTs))
		samples := db.data[key]
		for i, t := range sampleTs {
			if s := latestInWindow(samples, t-step.Nanoseconds(), t); s != nil {
				v := s.v // copy, samples may be overwritten after the lock is released
				vals[i] = &v
			}
		}
		valsMap[key] = vals
	}
	return tms, valsMap
}

// startGaugeSampler periodically records the pipeline queue depths so the
// diagnostics API can show backpressure history.
func startGaugeSampler(db *MetricsDB, cons *console.Console, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for now := range ticker.C {
			db.Record("queue.commands", now, float64(cons.CommandQueueLen()))
			db.Record("queue.output", now, float64(cons.OutputQueueLen()))
		}
	}()
}
