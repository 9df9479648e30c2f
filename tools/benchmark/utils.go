// Package main provides helper functions for the benchmark CLI
package main

import (
	"fmt"
	"time"
)

// formatRate renders a requests-per-second figure.
func formatRate(count int, duration time.Duration) string {
	if duration.Seconds() == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f/s", float64(count)/duration.Seconds())
}

func percentageString(part, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(total)*100)
}

// statusEmoji summarizes a finished run. Transport failures dominate,
// then ledger reverts, then clean success.
func statusEmoji(succeeded, reverted, failed int) string {
	if failed > 0 {
		return "❌"
	}
	if reverted > 0 {
		return "🟡"
	}
	if succeeded > 0 {
		return "✅"
	}
	return "⚪"
}
