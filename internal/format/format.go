// Package format renders market figures for terminal output.
package format

import (
	"math"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ArrowUp   = "↗"
	ArrowDown = "↘"
)

// Currency formats v with exactly decimals fraction digits and en-US
// thousands separators, e.g. 1234.56 -> "1,234.56".
func Currency(v float64, decimals int) string {
	return message.NewPrinter(language.English).Sprintf("%.*f", decimals, v)
}

// Billions divides v by 1e9, e.g. 123456789012 -> "123.46".
func Billions(v float64, decimals int) string {
	return strconv.FormatFloat(v/1e9, 'f', decimals, 64)
}

// Percentage formats the magnitude of v; the direction is shown by ChangeArrow.
func Percentage(v float64, decimals int) string {
	return strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
}

// ChangeArrow points up for zero and positive changes.
func ChangeArrow(v float64) string {
	if v >= 0 {
		return ArrowUp
	}
	return ArrowDown
}

// ChangeColor is green for zero and positive changes, red otherwise.
func ChangeColor(v float64) *color.Color {
	if v >= 0 {
		return color.New(color.FgGreen)
	}
	return color.New(color.FgRed)
}

// Change renders v as a colored arrow and magnitude, e.g. "↘ 1.25%".
func Change(v float64) string {
	return ChangeColor(v).Sprint(ChangeArrow(v) + " " + Percentage(v, 2) + "%")
}
