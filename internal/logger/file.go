package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/itemforge/internal/models"
)

// FileLogger logs run events to files in a log directory.
// It creates a timestamped log file per run, a detailed log per failed item
// under items/, and maintains a latest.log symlink pointing to the most recent
// run. It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	itemsDir string
	logLevel string
	mu       sync.Mutex
}

// NewFileLoggerWithDir creates a new FileLogger with a custom log directory.
// Uses default log level "info".
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	itemsDir := filepath.Join(logDir, "items")
	if err := os.MkdirAll(itemsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		itemsDir: itemsDir,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== itemforge Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of this run's log file
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message))
}

// LogItemResult records one item in the run log. Failed items additionally
// get items/<name>.log with the source path and the full error.
func (fl *FileLogger) LogItemResult(result models.ItemResult) {
	ts := time.Now().Format("15:04:05")

	if result.Succeeded() {
		if fl.shouldLog("info") {
			line := fmt.Sprintf("[%s] %s: %s", ts, result.Label(), result.Status)
			if result.OutputPath != "" {
				line += " -> " + result.OutputPath
			}
			fl.writeRunLog(fmt.Sprintf("%s (%dms)\n", line, result.Duration.Milliseconds()))
		}
	} else if fl.shouldLog("error") {
		fl.writeRunLog(fmt.Sprintf("[%s] %s: FAILED: %v\n", ts, result.Label(), result.Error))
	}

	if fl.shouldLog("warn") {
		for _, w := range result.Warnings {
			fl.writeRunLog(fmt.Sprintf("[%s] [WARN] %s: %s\n", ts, result.Label(), w))
		}
	}

	if !result.Succeeded() {
		if err := fl.writeItemLog(result); err != nil && fl.shouldLog("warn") {
			fl.writeRunLog(fmt.Sprintf("[%s] [WARN] %v\n", ts, err))
		}
	}
}

// itemLogName derives a file name from the item label
func itemLogName(result models.ItemResult) string {
	name := result.Identifier
	if name == "" {
		base := filepath.Base(result.SourcePath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if name == "" || name == "." {
		name = "unknown"
	}
	return name + ".log"
}

func (fl *FileLogger) writeItemLog(result models.ItemResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Item %s ===\n", result.Label())
	fmt.Fprintf(&b, "Source: %s\n", result.SourcePath)
	fmt.Fprintf(&b, "Status: %s\n", models.StatusFailed)
	fmt.Fprintf(&b, "Duration: %dms\n\n", result.Duration.Milliseconds())
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	fmt.Fprintf(&b, "Error:\n%v\n\n", result.Error)
	fmt.Fprintf(&b, "Logged at: %s\n", time.Now().Format(time.RFC3339))

	path := filepath.Join(fl.itemsDir, itemLogName(result))
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write item log: %w", err)
	}
	return nil
}

// LogSummary logs the run summary with final statistics at INFO level.
func (fl *FileLogger) LogSummary(summary models.RunSummary) {
	if !fl.shouldLog("info") {
		return
	}

	ts := time.Now().Format("15:04:05")

	status := "SUCCESS"
	if summary.Failed > 0 {
		if summary.Succeeded() == 0 {
			status = "FAILED"
		} else {
			status = "PARTIAL"
		}
	}

	message := fmt.Sprintf(
		"\n[%s] === COMPILE SUMMARY ===\n"+
			"[%s] Run ID:       %s\n"+
			"[%s] Total items:  %d\n"+
			"[%s] Compiled:     %d\n"+
			"[%s] Cached:       %d\n"+
			"[%s] Failed:       %d\n"+
			"[%s] Total time:   %.1fs\n"+
			"[%s] Status:       %s (%d/%d items produced output)\n"+
			"[%s] Completed at: %s\n",
		ts,
		ts, summary.RunID,
		ts, summary.Total,
		ts, summary.Compiled,
		ts, summary.Cached,
		ts, summary.Failed,
		ts, summary.Duration.Seconds(),
		ts, status, summary.Succeeded(), summary.Total,
		ts, time.Now().Format(time.RFC3339),
	)

	fl.writeRunLog(message)
}

// LogProgress records batch progress at DEBUG level
func (fl *FileLogger) LogProgress(done, total int) {
	if !fl.shouldLog("debug") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [DEBUG] progress %d/%d\n", time.Now().Format("15:04:05"), done, total))
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
