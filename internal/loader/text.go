package loader

import (
	"strings"

	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/relation"
)

// queryPrefix marks a query line in a definitions file.
const queryPrefix = "Query:"

// ParseDefinitions reads every relation block in text.
//
// A block starts on a line containing '(', '=' and '{'. The relation name
// is the first word before '(' and the attributes are the comma-separated
// names up to the first ')'. Each following non-blank line is one row until
// a line containing '}' closes the block; a trailing comma on a row line is
// ignored. When the opening line itself contains a '}' after its '{', the
// text between the braces is the block's only row.
//
// A later block with the same name replaces an earlier one.
func ParseDefinitions(text string) (relation.Environment, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	env := make(relation.Environment)

	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		lineNo := i + 1
		i++
		if !isBlockStart(line) {
			continue
		}

		name, attrs, err := parseBlockHeader(line)
		if err != nil {
			return nil, &LoadError{Line: lineNo, Err: err}
		}

		type rowLine struct {
			no   int
			text string
		}
		var rowLines []rowLine
		open := line[strings.IndexByte(line, '{')+1:]
		if end := strings.IndexByte(open, '}'); end >= 0 {
			rowLines = append(rowLines, rowLine{lineNo, open[:end]})
		} else {
			for i < len(lines) {
				ln := lines[i]
				i++
				if strings.Contains(ln, "}") {
					break
				}
				rowLines = append(rowLines, rowLine{i, ln})
			}
		}

		var rows []relation.Row
		for _, rl := range rowLines {
			stripped := strings.TrimSpace(rl.text)
			stripped = strings.TrimSuffix(stripped, ",")
			if strings.TrimSpace(stripped) == "" {
				continue
			}
			row, err := parseRow(name, attrs, stripped)
			if err != nil {
				return nil, &LoadError{Line: rl.no, Err: err}
			}
			rows = append(rows, row)
		}

		rel, err := relation.New(name, attrs, rows)
		if err != nil {
			return nil, &LoadError{Line: lineNo, Err: err}
		}
		rel.Dedup()
		env[name] = rel
	}
	return env, nil
}

func isBlockStart(line string) bool {
	return strings.Contains(line, "(") && strings.Contains(line, "=") && strings.Contains(line, "{")
}

func parseBlockHeader(line string) (string, []string, error) {
	before, after, _ := strings.Cut(line, "(")
	words := strings.Fields(before)
	if len(words) == 0 {
		return "", nil, qerr.New(qerr.KindDefinition, "Missing relation name in line: %s", line)
	}
	name := words[0]

	attrsPart, _, ok := strings.Cut(after, ")")
	if !ok {
		return "", nil, qerr.New(qerr.KindDefinition, "Missing ')' after attributes of relation %s", name)
	}
	var attrs []string
	for _, a := range strings.Split(attrsPart, ",") {
		if a = strings.TrimSpace(a); a != "" {
			attrs = append(attrs, a)
		}
	}
	return name, attrs, nil
}

func parseRow(name string, attrs []string, line string) (relation.Row, error) {
	fields, err := splitFields(line)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(attrs) {
		return nil, qerr.New(qerr.KindDefinition,
			"Row arity mismatch for relation %s: expected %d values, got %d in line: %s",
			name, len(attrs), len(fields), line)
	}
	row := make(relation.Row, len(fields))
	for i, f := range fields {
		row[i] = convertField(f)
	}
	return row, nil
}

// Queries returns the expression of every "Query: <expr>" line in text, in
// order.
func Queries(text string) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, queryPrefix); ok {
			queries = append(queries, strings.TrimSpace(rest))
		}
	}
	return queries
}
