package main

import (
	"regexp"
	"sync"
	"time"
)

// One recorded unit of console traffic. Direction is "rx" for completed
// command lines received from the terminal, "tx" for transmitted messages.
type trafficLine struct {
	num     int
	dir     string
	content string
	time    time.Time
}

// formatConsoleTime renders a timestamp the way the diagnostics API reports
// it: RFC3339-like with local offset, millisecond precision, space separator.
func formatConsoleTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05.000-07:00")
}

// LineDB is the in-memory record of everything that crossed the console,
// queryable from the diagnostics API.
type LineDB struct {
	mu    sync.RWMutex
	lines []trafficLine
}

func NewLineDB() *LineDB {
	return &LineDB{}
}

// AddLine appends a traffic line. lineNum must be increasing from 1 across
// calls; the caller serializes numbering.
func (db *LineDB) AddLine(lineNum int, dir string, content string) time.Time {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now()
	db.lines = append(db.lines, trafficLine{
		num:     lineNum,
		dir:     dir,
		content: content,
		time:    now,
	})
	return now
}

// QueryOptions narrows a traffic query. Tail wins over From/To when both are
// given (the API validator rejects that combination). All filters are ANDed.
type QueryOptions struct {
	FromLine *int // inclusive, 1-based; nil means from the beginning
	ToLine   *int // exclusive, 1-based; nil means to the end
	Tail     *int // last N lines

	FilterDir   string         // "rx" or "tx"; empty means any
	FilterRegex *regexp.Regexp // nil means no content filter
}

func scanRange(lines []trafficLine, opts QueryOptions) []trafficLine {
	if opts.Tail != nil {
		n := *opts.Tail
		if n <= 0 {
			return nil
		}
		if n >= len(lines) {
			return lines
		}
		return lines[len(lines)-n:]
	}

	start := 0
	if opts.FromLine != nil && *opts.FromLine > 0 {
		start = *opts.FromLine - 1
		if start >= len(lines) {
			return nil
		}
	}
	end := len(lines)
	if opts.ToLine != nil && *opts.ToLine > 0 && *opts.ToLine-1 < end {
		end = *opts.ToLine - 1
	}
	if end < start {
		return nil
	}
	return lines[start:end]
}

// Query returns the traffic lines matching opts, in line-number order.
func (db *LineDB) Query(opts QueryOptions) []trafficLine {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var result []trafficLine
	for _, l := range scanRange(db.lines, opts) {
		if opts.FilterDir != "" && l.dir != opts.FilterDir {
			continue
		}
		if opts.FilterRegex != nil && !opts.FilterRegex.MatchString(l.content) {
			continue
		}
		result = append(result, l)
	}
	return result
}
