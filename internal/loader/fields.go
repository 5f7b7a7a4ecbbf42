package loader

import (
	"strings"

	"github.com/qimcis/raq/internal/qerr"
)

// field is one comma-separated cell of a row line.
type field struct {
	text   string
	quoted bool
}

// splitFields splits a row line on commas. A field that starts with a double
// or single quote runs to the matching quote, so it may contain commas; a
// doubled quote inside it stands for one quote character. Spaces around
// fields are dropped.
func splitFields(line string) ([]field, error) {
	var fields []field
	i := 0
	for {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}

		var f field
		if i < len(line) && (line[i] == '"' || line[i] == '\'') {
			text, next, err := quotedField(line, i)
			if err != nil {
				return nil, err
			}
			f = field{text: text, quoted: true}
			i = next
			rest := line[i:]
			if end := strings.IndexByte(rest, ','); end >= 0 {
				f.text += strings.TrimRight(rest[:end], " \t")
				i += end
			} else {
				f.text += strings.TrimRight(rest, " \t")
				i = len(line)
			}
		} else {
			end := strings.IndexByte(line[i:], ',')
			if end < 0 {
				end = len(line) - i
			}
			f = field{text: strings.TrimSpace(line[i : i+end])}
			i += end
		}
		fields = append(fields, f)

		if i >= len(line) {
			return fields, nil
		}
		i++ // comma
	}
}

// quotedField reads the quoted field opening at line[start] and returns its
// unquoted text and the index just past the closing quote.
func quotedField(line string, start int) (string, int, error) {
	quote := line[start]
	var b strings.Builder
	i := start + 1
	for i < len(line) {
		c := line[i]
		if c != quote {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(line) && line[i+1] == quote {
			b.WriteByte(quote)
			i += 2
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, qerr.New(qerr.KindDefinition, "Unterminated quoted value in line: %s", line)
}
