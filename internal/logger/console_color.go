package logger

import (
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/itemforge/internal/models"
)

// Level colours: grey trace, cyan debug, blue info, yellow warn, red error.
// fatih/color disables itself when output is not a TTY.
func colorLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// Status colours: green compiled, cyan cached, red failed
func colorStatus(status string) string {
	switch status {
	case models.StatusCompiled:
		return color.New(color.FgGreen).Sprint(status)
	case models.StatusCached:
		return color.New(color.FgCyan).Sprint(status)
	case models.StatusFailed:
		return color.New(color.FgRed).Sprint(status)
	default:
		return status
	}
}
