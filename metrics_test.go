package main

import (
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func genSampleTime(t *rapid.T, label string) time.Time {
	min := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	max := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	return time.Unix(0, rapid.Int64Range(min, max).Draw(t, label))
}

func TestQueryShapeEmptyDB(t *testing.T) {
	db := NewMetricsDB()

	rapid.Check(t, func(t *rapid.T) {
		start := genSampleTime(t, "start")
		dur := time.Duration(rapid.Int64Range(0, time.Hour.Nanoseconds()).Draw(t, "dur"))
		keys := rapid.SliceOf(rapid.String()).Draw(t, "keys")
		end := start.Add(dur)
		step := time.Minute

		tms, valsMap := db.QueryRanges(keys, start, end, step)
		if len(tms) == 0 {
			t.Fatalf("at least one timestamp is expected")
		}
		if !slices.IsSortedFunc(tms, func(a, b time.Time) int {
			return a.Compare(b)
		}) {
			t.Fatalf("timestamps are not increasing %v", tms)
		}
		for _, tm := range tms {
			if tm.Before(start) || tm.After(end) {
				t.Fatalf("timestamp %v is out of range [%v, %v]", tm, start, end)
			}
		}
		for _, key := range keys {
			vals, ok := valsMap[key]
			if !ok {
				t.Fatalf("key %s not found in values", key)
			}
			if len(vals) != len(tms) {
				t.Fatalf("(key=%s) value array length didn't match: expected %d, got %d", key, len(tms), len(vals))
			}
			for _, val := range vals {
				if val != nil {
					t.Fatalf("(key=%s) value must be nil, got %v", key, *val)
				}
			}
		}
	})
}

func TestQueryWindows(t *testing.T) {
	db := NewMetricsDB()
	db.Record("q", time.Date(2000, 1, 1, 0, 0, 1, 0, time.UTC), 1) // slightly after 0s
	db.Record("q", time.Date(2000, 1, 1, 0, 0, 4, 0, time.UTC), 7) // slightly before 5s

	// query [0s, 5s], step 1s
	_, valsMap := db.QueryRanges([]string{"q"},
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 1, 1, 0, 0, 5, 0, time.UTC),
		time.Second)

	// 0s=no-data 1s=sample 2s=1s-stale 3s=out-of-window 4s=sample 5s=1s-stale
	expected := []*float64{nil, f(1), f(1), nil, f(7), f(7)}
	observed := valsMap["q"]
	if len(observed) != len(expected) {
		t.Fatalf("value array length didn't match: expected %d, got %d", len(expected), len(observed))
	}
	for i := range expected {
		if !eq(observed[i], expected[i]) {
			t.Errorf("value[%d] didn't match: expected %v, got %v", i, expected[i], observed[i])
		}
	}
}

func TestQueryOutOfOrderRecord(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		db := NewMetricsDB()
		data := []int{0, 1, 2, 3, 4, 5}
		order := rapid.Permutation(data).Draw(t, "order")
		for _, v := range order {
			db.Record("q", time.Unix(int64(v), 0), float64(v))
		}
		_, valsMap := db.QueryRanges([]string{"q"}, time.Unix(0, 0), time.Unix(5, 0), time.Second)

		for i, v := range valsMap["q"] {
			if v == nil || int(*v) != i {
				t.Fatalf("value[%d] didn't match: expected %d, got %v", i, i, v)
			}
		}
	})
}

func TestRecordOverwritesSameTimestamp(t *testing.T) {
	db := NewMetricsDB()
	tm := time.Unix(10, 0)
	db.Record("q", tm, 1)
	db.Record("q", tm, 2)

	_, valsMap := db.QueryRanges([]string{"q"}, tm, tm, time.Second)
	vals := valsMap["q"]
	if len(vals) != 1 || vals[0] == nil || *vals[0] != 2 {
		t.Fatalf("expected single overwritten value 2, got %v", vals)
	}
}

func f(v float64) *float64 { return &v }

func eq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
