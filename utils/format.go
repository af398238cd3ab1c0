package utils

import "fmt"

// FormatUSD renders a dollar amount the way the dashboard stat panel does:
// $1.23M, $45.6K or $7.89.
func FormatUSD(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

func FormatChange(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// FormatPrice keeps enough precision for sub-cent token prices.
func FormatPrice(v float64) string {
	if v < 1 {
		return fmt.Sprintf("$%.6f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}
