package main

import (
	"flag"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.bug.st/serial"

	"led-console/console"
)

// slogPatternSink is the stand-in for the physical LED pattern generator.
// The real effects engine lives outside this process; activations are logged
// so they can be observed during bench testing.
type slogPatternSink struct{}

func (slogPatternSink) SetPattern(p console.Pattern) {
	slog.Info("LED pattern activated", "pattern", p)
}

type apiImpl struct {
	cons *console.Console

	// line serialization
	lineMu      sync.Mutex
	nextLineNum int
	lineDB      *LineDB
	sessionLog  *SessionLog
	metrics     *MetricsDB
}

// console.Listener implementation. Both callbacks run on pipeline
// goroutines; recording is quick enough to not stall them.
func (h *apiImpl) LineReceived(line string) {
	h.addLineAtomic("rx", line)
}

func (h *apiImpl) LineSent(text string) {
	h.addLineAtomic("tx", text)
}

func (h *apiImpl) addLineAtomic(dir string, content string) {
	h.lineMu.Lock()
	defer h.lineMu.Unlock()

	lineNum := h.nextLineNum
	h.nextLineNum++

	h.lineDB.AddLine(lineNum, dir, content)
	h.sessionLog.AddLine(lineNum, dir, content)
}

func (h *apiImpl) Close() {
	h.sessionLog.Close()
}

// ConsoleAPI implementation
func (h *apiImpl) SendLine(req *SendLineRequest) (*SendLineResponse, error) {
	ok := h.cons.SubmitCommand(req.Line)
	return &SendLineResponse{
		OK:   ok,
		Time: formatConsoleTime(time.Now()),
	}, nil
}

func (h *apiImpl) QueryLines(req *QueryLinesRequest) (*QueryLinesResponse, error) {
	var filterRegex *regexp.Regexp
	if req.FilterRegex != "" {
		filterRegex, _ = regexp.Compile(req.FilterRegex)
	}

	lines := h.lineDB.Query(QueryOptions{
		FromLine:    req.FromLine,
		ToLine:      req.ToLine,
		Tail:        req.Tail,
		FilterDir:   req.FilterDir,
		FilterRegex: filterRegex,
	})

	totalCount := len(lines)
	const maxLines = 1000 // Limit response to 1000 lines
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	resp := QueryLinesResponse{
		Count: totalCount,
		Lines: make([]LineInfo, len(lines)),
		Now:   formatConsoleTime(time.Now()),
	}
	for i, l := range lines {
		resp.Lines[i] = LineInfo{
			LineNum: l.num,
			Dir:     l.dir,
			Content: l.content,
			Time:    formatConsoleTime(l.time),
		}
	}
	return &resp, nil
}

func (h *apiImpl) GetStatus(req *GetStatusRequest) (*GetStatusResponse, error) {
	statuses := h.cons.WatchdogSnapshot()
	watches := make([]TaskWatch, len(statuses))
	for i, st := range statuses {
		watches[i] = TaskWatch{
			Name:     st.Name,
			LastFed:  formatConsoleTime(st.LastFed),
			WindowMS: st.Window.Milliseconds(),
			Expired:  st.Expired,
		}
	}

	return &GetStatusResponse{
		MenuState: h.cons.MenuState().String(),
		Queues: QueueStatus{
			Commands: h.cons.CommandQueueLen(),
			Output:   h.cons.OutputQueueLen(),
		},
		Watchdog: watches,
	}, nil
}

func (h *apiImpl) QueryTS(req *QueryTSRequest) (*QueryTSResponse, error) {
	start := time.Unix(0, int64(req.Start*float64(time.Second)))
	end := time.Unix(0, int64(req.End*float64(time.Second)))
	step := time.Duration(req.Step * float64(time.Second))

	tms, valsMap := h.metrics.QueryRanges(req.Query, start, end, step)
	times := make([]float64, len(tms))
	for i, tm := range tms {
		times[i] = float64(tm.UnixNano()) / float64(time.Second)
	}
	return &QueryTSResponse{Times: times, Values: valsMap}, nil
}

func main() {
	// Flag resolution: flags start from built-in defaults, the config file
	// fills in the middle, and explicitly set flags win.
	defaults := defaultConfig()
	configPath := flag.String("config", "", "YAML config file path (optional)")
	portName := flag.String("port", defaults.Port, "Serial port name")
	baud := flag.Int("baud", defaults.Baud, "Serial port baud rate")
	addr := flag.String("addr", defaults.Addr, "Diagnostics HTTP listen address")
	logDir := flag.String("log-dir", defaults.LogDir, "Directory for session log files")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg := defaults
	if *configPath != "" {
		if err := cfg.load(*configPath); err != nil {
			slog.Error("Config file error", "path", *configPath, "error", err)
			return
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *portName
		case "baud":
			cfg.Baud = *baud
		case "addr":
			cfg.Addr = *addr
		case "log-dir":
			cfg.LogDir = *logDir
		}
	})

	logDirAbs, err := filepath.Abs(cfg.LogDir)
	if err != nil {
		slog.Error("Failed to resolve log directory path", "logDir", cfg.LogDir, "error", err)
		return
	}
	slog.Info("Using log directory", "path", logDirAbs)

	// Storage & session logger
	lineDB := NewLineDB()
	sessionLog := NewSessionLog(logDirAbs)
	defer sessionLog.Close()

	apiImpl := &apiImpl{
		lineDB:      lineDB,
		sessionLog:  sessionLog,
		metrics:     NewMetricsDB(),
		nextLineNum: 1,
	}
	defer apiImpl.Close()

	// Open the serial port and start the console pipeline.
	mode := &serial.Mode{BaudRate: cfg.Baud}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		slog.Error("Failed to open serial port", "port", cfg.Port, "baud", cfg.Baud, "error", err)
		return
	}
	defer port.Close()
	slog.Info("Opened serial port", "port", cfg.Port, "baud", cfg.Baud)

	apiImpl.cons = console.Start(port, slogPatternSink{}, apiImpl, console.Config{})
	startGaugeSampler(apiImpl.metrics, apiImpl.cons, 500*time.Millisecond)

	// Start diagnostics HTTP server
	slog.Info("HTTP server starting", "addr", cfg.Addr)
	if err := StartHTTPServer(cfg.Addr, apiImpl); err != nil {
		slog.Error("HTTP server error", "error", err)
	}
}
