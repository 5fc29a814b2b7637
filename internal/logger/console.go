// Package logger provides logging implementations for itemforge runs.
//
// Loggers report per-item compile results, batch progress and a run summary
// on top of plain levelled messages. Implementations are safe for concurrent
// use by the compile pipeline's workers.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/itemforge/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else means "info". Colour is enabled for os.Stdout and os.Stderr unless
// NO_COLOR is set or the stream is not a terminal.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return NewConsoleLoggerWithColor(writer, logLevel, isTerminal(writer))
}

// NewConsoleLoggerWithColor creates a ConsoleLogger with explicit colour control
func NewConsoleLoggerWithColor(writer io.Writer, logLevel string, useColor bool) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: useColor,
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// color.NoColor already accounts for NO_COLOR and non-TTY stdout
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// LogItemResult logs one compiled item.
// Successes log at INFO: "[HH:MM:SS] <label>: COMPILED -> <output> (<duration>)".
// Failures log at ERROR with the error text. Warnings follow at WARN.
func (cl *ConsoleLogger) LogItemResult(result models.ItemResult) {
	if cl.writer == nil {
		return
	}

	level := "info"
	if !result.Succeeded() {
		level = "error"
	}
	if !cl.shouldLog(level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	status := result.Status
	if !result.Succeeded() {
		status = models.StatusFailed
	}
	if cl.colorOutput {
		status = colorStatus(status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", ts, result.Label(), status)
	if result.Succeeded() {
		if result.OutputPath != "" {
			fmt.Fprintf(&b, " -> %s", result.OutputPath)
			if !result.Written {
				b.WriteString(" (unchanged)")
			}
		}
		fmt.Fprintf(&b, " (%s)\n", formatDuration(result.Duration))
	} else {
		fmt.Fprintf(&b, ": %v\n", result.Error)
	}

	if cl.shouldLog("warn") {
		for _, w := range result.Warnings {
			warnLevel := "WARN"
			if cl.colorOutput {
				warnLevel = colorLevel(warnLevel)
			}
			fmt.Fprintf(&b, "[%s] [%s] %s: %s\n", ts, warnLevel, result.Label(), w)
		}
	}

	cl.writer.Write([]byte(b.String()))
}

// LogSummary logs the run summary at INFO level.
// Format: "[HH:MM:SS] === Compile Summary ===" followed by the counts,
// the duration and one line per failed item.
func (cl *ConsoleLogger) LogSummary(summary models.RunSummary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	header := "=== Compile Summary ==="
	compiled := fmt.Sprintf("Compiled: %d", summary.Compiled)
	cached := fmt.Sprintf("Cached: %d", summary.Cached)
	failed := fmt.Sprintf("Failed: %d", summary.Failed)
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
		compiled = color.New(color.FgGreen).Sprint(compiled)
		cached = color.New(color.FgCyan).Sprint(cached)
		if summary.Failed > 0 {
			failed = color.New(color.FgRed).Sprint(failed)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", ts, header)
	fmt.Fprintf(&b, "[%s] Total items: %d\n", ts, summary.Total)
	fmt.Fprintf(&b, "[%s] %s\n", ts, compiled)
	fmt.Fprintf(&b, "[%s] %s\n", ts, cached)
	fmt.Fprintf(&b, "[%s] %s\n", ts, failed)
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(summary.Duration))

	if len(summary.FailedItems) > 0 {
		fmt.Fprintf(&b, "[%s] Failed items:\n", ts)
		for _, item := range summary.FailedItems {
			label := item.Label()
			if cl.colorOutput {
				label = color.New(color.FgRed).Sprint(label)
			}
			fmt.Fprintf(&b, "[%s]   - %s: %v\n", ts, label, item.Error)
		}
	}

	cl.writer.Write([]byte(b.String()))
}

// LogProgress logs batch progress at INFO level.
// Format: "[HH:MM:SS] Progress: [=====     ] 2/4 (50%) items"
func (cl *ConsoleLogger) LogProgress(done, total int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	bar := renderProgressBar(done, total, progressBarWidth, cl.colorOutput)
	cl.writer.Write([]byte(fmt.Sprintf("[%s] Progress: %s items\n", timestamp(), bar)))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Sub-second durations are shown in milliseconds since single items compile
// quickly. Examples: "12ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string)                {}
func (n *NoOpLogger) LogDebug(message string)                {}
func (n *NoOpLogger) LogInfo(message string)                 {}
func (n *NoOpLogger) LogWarn(message string)                 {}
func (n *NoOpLogger) LogError(message string)                {}
func (n *NoOpLogger) LogItemResult(result models.ItemResult) {}
func (n *NoOpLogger) LogSummary(summary models.RunSummary)   {}
func (n *NoOpLogger) LogProgress(done, total int)            {}
