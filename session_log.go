package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// SessionLog mirrors console traffic to a per-session text file so a crashed
// or restarted console still leaves a trace on disk. Logging is best-effort:
// any file error downgrades the logger to a no-op.
type SessionLog struct {
	file *os.File
}

var sessionFilePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-sess(\d+)-console\.txt$`)

func NewSessionLog(logDir string) *SessionLog {
	sl := &SessionLog{}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		slog.Error("Failed to create log directory", "dir", logDir, "error", err)
		return sl
	}

	filename := nextSessionFileName(logDir, time.Now())
	if filename == "" {
		slog.Error("Failed to read log directory, continuing without session log", "dir", logDir)
		return sl
	}

	logPath := filepath.Join(logDir, filename)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("Failed to create session log", "path", logPath, "error", err)
		return sl
	}

	sl.file = file
	slog.Info("Created session log", "path", logPath)
	return sl
}

// nextSessionFileName scans logDir for today's session files and picks the
// next free session number.
func nextSessionFileName(logDir string, now time.Time) string {
	today := now.Format("2006-01-02")

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return ""
	}

	maxSession := -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := sessionFilePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 3 || matches[1] != today {
			continue
		}
		if n, err := strconv.Atoi(matches[2]); err == nil && n > maxSession {
			maxSession = n
		}
	}

	return fmt.Sprintf("%s-sess%d-console.txt", today, maxSession+1)
}

func (sl *SessionLog) AddLine(lineNum int, dir string, content string) {
	if sl.file == nil {
		return
	}

	logLine := fmt.Sprintf("%s %d %s %q\n", formatConsoleTime(time.Now()), lineNum, dir, content)
	if _, err := sl.file.WriteString(logLine); err != nil {
		slog.Error("Failed to write session log", "error", err)
		return
	}

	// Flush so the trace survives a hard stop.
	sl.file.Sync()
}

func (sl *SessionLog) Close() {
	if sl.file == nil {
		return
	}
	sl.file.Close()
	sl.file = nil
}
