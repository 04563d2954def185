package vgrid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style is the text style a column may pick per value.
type Style = lipgloss.Style

// Align is the horizontal alignment of a column's text.
type Align uint8

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// AlignWith sets the column alignment.
func AlignWith(a Align) ColumnOption {
	return func(s *ColumnSpec) { s.align = a; s.hasAlign = true }
}

// FormatWith sets a function that converts the value to display text.
func FormatWith(fn func(any) string) ColumnOption {
	return func(s *ColumnSpec) { s.format = fn }
}

// StyleWith sets a function that picks a per-cell style from the value.
func StyleWith(fn func(any) Style) ColumnOption {
	return func(s *ColumnSpec) { s.style = fn }
}

// FormatValue renders a value with the column's formatter. Missing values are empty.
func (s *ColumnSpec) FormatValue(v any, ok bool) string {
	if !ok || v == nil {
		return ""
	}
	if s.format != nil {
		return s.format(v)
	}
	return fmt.Sprint(v)
}

// Alignment returns the explicit alignment, or a default guessed from the value.
func (s *ColumnSpec) Alignment(sample any) Align {
	if s.hasAlign {
		return s.align
	}
	if isNumeric(sample) {
		return AlignRight
	}
	return AlignLeft
}

// CellStyle returns the per-value style, if the column has one.
func (s *ColumnSpec) CellStyle(v any) (Style, bool) {
	if s.style == nil {
		return Style{}, false
	}
	return s.style(v), true
}

// ----------------------------------------------------------------------------
// canned format presets
// ----------------------------------------------------------------------------

// Number formats numeric values with comma separators.
// decimals controls decimal places for floats (ignored for integers).
func Number(decimals int) ColumnOption {
	return func(s *ColumnSpec) {
		AlignWith(AlignRight)(s)
		s.format = func(v any) string { return formatNumber(v, decimals) }
	}
}

// Currency formats numeric values with a symbol prefix and comma separators.
func Currency(symbol string, decimals int) ColumnOption {
	return func(s *ColumnSpec) {
		AlignWith(AlignRight)(s)
		s.format = func(v any) string { return symbol + formatNumber(v, decimals) }
	}
}

// Percent formats numeric values as percentages.
func Percent(decimals int) ColumnOption {
	return func(s *ColumnSpec) {
		AlignWith(AlignRight)(s)
		s.format = func(v any) string {
			f, _ := toFloat64(v)
			return strconv.FormatFloat(f, 'f', decimals, 64) + "%"
		}
	}
}

// Bytes formats numeric values as human-readable byte sizes.
func Bytes() ColumnOption {
	return func(s *ColumnSpec) {
		AlignWith(AlignRight)(s)
		s.format = func(v any) string {
			f, _ := toFloat64(v)
			return formatBytes(f)
		}
	}
}

// Bool formats boolean values with custom labels.
func Bool(yes, no string) ColumnOption {
	return func(s *ColumnSpec) {
		AlignWith(AlignCenter)(s)
		s.format = func(v any) string {
			if b, ok := v.(bool); ok && b {
				return yes
			}
			return no
		}
	}
}

// ----------------------------------------------------------------------------
// canned style presets
// ----------------------------------------------------------------------------

// StyleSign styles cells based on the numeric sign of the value.
func StyleSign(positive, negative Style) ColumnOption {
	return StyleWith(func(v any) Style {
		if f, _ := toFloat64(v); f >= 0 {
			return positive
		}
		return negative
	})
}

// StyleThreshold styles cells based on numeric thresholds.
// Values < low get below, low..high get between, > high get above.
func StyleThreshold(low, high float64, below, between, above Style) ColumnOption {
	return StyleWith(func(v any) Style {
		f, _ := toFloat64(v)
		if f < low {
			return below
		}
		if f > high {
			return above
		}
		return between
	})
}

// ----------------------------------------------------------------------------
// internal helpers
// ----------------------------------------------------------------------------

// toFloat64 converts common numeric types to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func isNumeric(v any) bool {
	_, ok := toFloat64(v)
	return ok
}

// formatNumber formats a numeric value with comma separators.
func formatNumber(v any, decimals int) string {
	f, _ := toFloat64(v)
	return insertCommas(strconv.FormatFloat(f, 'f', decimals, 64))
}

// insertCommas adds thousand separators to a numeric string.
func insertCommas(s string) string {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	integer, decimal, hasDecimal := strings.Cut(s, ".")

	if n := len(integer); n > 3 {
		var b strings.Builder
		b.Grow(n + n/3)
		start := n % 3
		if start == 0 {
			start = 3
		}
		b.WriteString(integer[:start])
		for i := start; i < n; i += 3 {
			b.WriteByte(',')
			b.WriteString(integer[i : i+3])
		}
		integer = b.String()
	}

	result := integer
	if hasDecimal {
		result += "." + decimal
	}
	if neg {
		return "-" + result
	}
	return result
}

// formatBytes converts a byte count to a human-readable string.
func formatBytes(b float64) string {
	if b < 0 {
		return "-" + formatBytes(-b)
	}
	if b < 1 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	exp := int(math.Log(b) / math.Log(1024))
	if exp >= len(units) {
		exp = len(units) - 1
	}
	val := b / math.Pow(1024, float64(exp))
	if exp == 0 {
		return fmt.Sprintf("%.0f %s", val, units[exp])
	}
	return fmt.Sprintf("%.1f %s", val, units[exp])
}
