// Package expr implements the small int/string expression language used by
// ping and SNMP colour rules: arithmetic, string concatenation, comparisons,
// and a handful of boolean built-ins, with Python-like truthiness.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is either an integer or a string, the only two types in the
// language. The zero Value is the integer 0.
type Value struct {
	isString bool
	i        int64
	s        string
}

// Int wraps an integer value.
func Int(i int64) Value { return Value{i: i} }

// Str wraps a string value.
func Str(s string) Value { return Value{isString: true, s: s} }

func boolValue(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// AsInt coerces the value to an integer: int(str(x)) parses its leading
// decimal run, an unparseable string reads as 0.
func (v Value) AsInt() int64 {
	if !v.isString {
		return v.i
	}
	end := 0
	if end < len(v.s) && (v.s[end] == '-' || v.s[end] == '+') {
		end++
	}
	digits := end
	for end < len(v.s) && v.s[end] >= '0' && v.s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, _ := strconv.ParseInt(v.s[:end], 10, 64)
	return n
}

// AsString renders the value as its decimal string (for ints) or itself.
func (v Value) AsString() string {
	if v.isString {
		return v.s
	}
	return strconv.FormatInt(v.i, 10)
}

// AsBool applies Python-like truthiness: nonzero int, or non-empty string.
func (v Value) AsBool() bool {
	if v.isString {
		return v.s != ""
	}
	return v.i != 0
}

func (v Value) String() string {
	if v.isString {
		return fmt.Sprintf("%q", v.s)
	}
	return strconv.FormatInt(v.i, 10)
}

// Equal reports whether two values are the language-level same value,
// used only by tests.
func (v Value) Equal(other Value) bool {
	return v.isString == other.isString && v.i == other.i && v.s == other.s
}

func unescapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '\\' || i+1 >= len(runes) {
			b.WriteRune(c)
			continue
		}
		next := runes[i+1]
		switch next {
		case '\\', '"', '\'':
			b.WriteRune(next)
			i++
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
