package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PlaceholderKeys is the order in which replacements are applied.
var PlaceholderKeys = []string{"i", "j", "k", "u", "d", "p"}

// Replacements maps a placeholder key to the value supplied at render time.
// A key that is absent is treated as not supplied.
type Replacements map[string]string

// ReplacePlaceholders substitutes, key by key in PlaceholderKeys order, every
// literal occurrence of the note's declared placeholder text with the supplied
// value. Substitutions are sequential, so a value that contains a later key's
// placeholder text is itself rewritten by that later key.
func ReplacePlaceholders(body string, declared map[string]any, values Replacements) string {
	if declared == nil {
		return body
	}
	for _, key := range PlaceholderKeys {
		value, ok := values[key]
		if !ok {
			continue
		}
		literal, ok := declared[key]
		if !ok || literal == nil {
			continue
		}
		body = strings.ReplaceAll(body, LiteralText(literal), value)
	}
	return body
}

// LiteralText spells a decoded YAML scalar the way notes written for the
// original tool expect to find it in the body: True/False for booleans, floats
// always with a fraction or exponent (8.0, 1e+16), dates as YYYY-MM-DD.
func LiteralText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		return floatText(t)
	case float32:
		return floatText(float64(t))
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v)
}

// floatText uses the shortest round-trip digits, switching to exponent form
// below 1e-4 and from 1e16 up.
func floatText(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if f != 0 && (exp < -4 || exp >= 16) {
		return sci
	}
	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(out, ".") {
		out += ".0"
	}
	return out
}
