package loader

import (
	"strconv"
	"strings"

	"github.com/qimcis/raq/internal/value"
)

// ParseCell converts one unquoted cell of a text definition to a value:
// 0x-prefixed hex and decimal integers, floats, true/false, null/none
// (case-insensitive), and otherwise the text itself as a string.
func ParseCell(s string) value.Value {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "0x") {
		if n, err := strconv.ParseInt(s[2:], 16, 64); err == nil {
			return value.Int(n)
		}
	} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}

	switch lower {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	case "null", "none":
		return value.Null{}
	}
	return text(s)
}

func text(s string) value.Value {
	return value.Text(s)
}

func convertField(f field) value.Value {
	if f.quoted {
		return text(f.text)
	}
	return ParseCell(f.text)
}
