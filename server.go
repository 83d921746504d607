package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Model of the diagnostics HTTP API. Requests passed into ConsoleAPI are
// already validated, so an error returned here is an internal server error.
type ConsoleAPI interface {
	SendLine(req *SendLineRequest) (*SendLineResponse, error)
	QueryLines(req *QueryLinesRequest) (*QueryLinesResponse, error)
	GetStatus(req *GetStatusRequest) (*GetStatusResponse, error)
	QueryTS(req *QueryTSRequest) (*QueryTSResponse, error)
}

type LineInfo struct {
	LineNum int    `json:"line_num"`
	Dir     string `json:"dir"`     // "rx" for terminal->console, "tx" for console->terminal
	Content string `json:"content"` // content of the line
	Time    string `json:"time"`
}

// SendLineRequest injects a command as if it had been typed on the terminal.
type SendLineRequest struct {
	Line string `json:"line"`
}

type SendLineResponse struct {
	OK   bool   `json:"ok"` // false when the command queue is full
	Time string `json:"time"`
}

func validateSendLine(req *SendLineRequest) error {
	if strings.ContainsAny(req.Line, "\r\n") {
		return errors.New("line cannot contain newline")
	}
	if len(req.Line) > 100 {
		return errors.New("line must be <= 100 bytes")
	}
	if req.Line == "" {
		return errors.New("line cannot be empty")
	}
	return nil
}

type QueryLinesRequest struct {
	FromLine    *int   `json:"from_line,omitempty"`    // Optional: start from this line number (inclusive), 1-based
	ToLine      *int   `json:"to_line,omitempty"`      // Optional: up to this line number (exclusive), 1-based
	Tail        *int   `json:"tail,omitempty"`         // Optional: get last N lines (overrides from/to)
	FilterDir   string `json:"filter_dir,omitempty"`   // Optional: "rx" or "tx" direction filter
	FilterRegex string `json:"filter_regex,omitempty"` // Optional: regex filter (RE2 syntax)
}

type QueryLinesResponse struct {
	Count int        `json:"count"` // total number of matching lines
	Lines []LineInfo `json:"lines"` // actual lines (max 1000), ordered by line number (ascending)
	Now   string     `json:"now"`
}

func validateQueryLines(req *QueryLinesRequest) error {
	tailExists := req.Tail != nil
	rangeExists := req.FromLine != nil || req.ToLine != nil

	if tailExists && rangeExists {
		return errors.New("tail: cannot be used together with ranges (from_line, to_line)")
	}
	if req.FromLine != nil && *req.FromLine < 1 {
		return errors.New("from_line: must be >= 1")
	}
	if req.ToLine != nil && *req.ToLine < 1 {
		return errors.New("to_line: must be >= 1")
	}
	if req.FromLine != nil && req.ToLine != nil && *req.ToLine < *req.FromLine {
		return errors.New("to_line: must be >= from_line")
	}
	if tailExists && *req.Tail < 1 {
		return errors.New("tail: must be >= 1")
	}

	if req.FilterDir != "" && req.FilterDir != "rx" && req.FilterDir != "tx" {
		return errors.New("filter_dir: must be 'rx' or 'tx'")
	}

	if req.FilterRegex != "" {
		if _, err := regexp.Compile(req.FilterRegex); err != nil {
			return fmt.Errorf("filter_regex: invalid regex %v", err)
		}
	}
	return nil
}

type GetStatusRequest struct {
}

type QueueStatus struct {
	Commands int `json:"commands"` // pending commands waiting for dispatch
	Output   int `json:"output"`   // messages waiting for transmission
}

type TaskWatch struct {
	Name     string `json:"name"`
	LastFed  string `json:"last_fed"`
	WindowMS int64  `json:"window_ms"`
	Expired  bool   `json:"expired"`
}

type GetStatusResponse struct {
	MenuState string      `json:"menu_state"` // "main" or "led-patterns"
	Queues    QueueStatus `json:"queues"`
	Watchdog  []TaskWatch `json:"watchdog"`
}

func validateGetStatus(req *GetStatusRequest) error {
	return nil
}

// QueryTSRequest samples recorded pipeline gauges. Timestamps are Unix
// seconds; step is in seconds.
type QueryTSRequest struct {
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Step  float64  `json:"step"`
	Query []string `json:"query"`
}

type QueryTSResponse struct {
	Times  []float64             `json:"times"`
	Values map[string][]*float64 `json:"values"`
}

func validateQueryTS(req *QueryTSRequest) error {
	if len(req.Query) == 0 {
		return errors.New("query: cannot be empty")
	}
	if len(req.Query) > 100 {
		return errors.New("query: too many keys")
	}
	if req.Start < 0 || req.End < 0 {
		return errors.New("start/end: must be >= 0")
	}
	if req.End < req.Start {
		return errors.New("end: must be >= start")
	}
	if req.Step <= 0 {
		return errors.New("step: must be > 0")
	}
	if (req.End-req.Start)/req.Step > 10000 {
		return errors.New("too many steps")
	}
	return nil
}

func registerJsonHandler[ReqT any, RespT any](mux *http.ServeMux, path string, validate func(*ReqT) error, exec func(*ReqT) (*RespT, error)) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		// Handle CORS and method validation
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Decode & validate
		var req ReqT
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "invalid JSON: %v", err)
			return
		}
		if err := validate(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "invalid request: %v", err)
			return
		}

		// Execute
		slowTimer := time.AfterFunc(1*time.Second, func() {
			slog.Warn("API exec taking more than 1 second", "path", path)
		})
		resp, err := exec(&req)
		slowTimer.Stop()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		// Send response as JSON
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})
}

func newAPIMux(api ConsoleAPI) *http.ServeMux {
	mux := http.NewServeMux()
	registerJsonHandler(mux, "/send-line", validateSendLine, api.SendLine)
	registerJsonHandler(mux, "/query-lines", validateQueryLines, api.QueryLines)
	registerJsonHandler(mux, "/status", validateGetStatus, api.GetStatus)
	registerJsonHandler(mux, "/query-ts", validateQueryTS, api.QueryTS)
	return mux
}

func StartHTTPServer(addr string, api ConsoleAPI) error {
	return http.ListenAndServe(addr, newAPIMux(api))
}
