package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const progressBarWidth = 10

// progressPercent returns done/total as a whole percentage clamped to 0-100
func progressPercent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return done * 100 / total
}

// renderProgressBar draws "[=====     ] 2/4 (50%)". Counts past total are
// shown as-is but the bar stays full.
func renderProgressBar(done, total, width int, useColor bool) string {
	if width < 1 {
		width = progressBarWidth
	}

	perc := progressPercent(done, total)
	filled := perc * width / 100
	bar := fmt.Sprintf("[%s%s] %d/%d (%d%%)",
		strings.Repeat("=", filled), strings.Repeat(" ", width-filled), done, total, perc)

	if !useColor {
		return bar
	}
	if perc < 100 {
		return color.New(color.FgCyan).Sprint(bar)
	}
	return color.New(color.FgGreen).Sprint(bar)
}
