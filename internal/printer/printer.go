// Package printer renders relations for people and programs.
//
// Supported formats:
//   - text: the definitions-style block followed by a tab-separated table
//   - table: a bordered table
//   - json: one JSON object with name, header and rows
//   - csv: header row then one record per row
//
// Example usage:
//
//	if err := printer.Write(os.Stdout, printer.FormatText, rel); err != nil {
//	    log.Fatal(err)
//	}
package printer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/value"
)

// Format names an output format.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatTable, FormatJSON, FormatCSV}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want text, table, json or csv)", name)
}

// Write renders rel to w in the given format.
func Write(w io.Writer, format Format, rel *relation.Relation) error {
	switch format {
	case FormatText, "":
		return Text(w, rel)
	case FormatTable:
		return Table(w, rel)
	case FormatJSON:
		return JSON(w, rel)
	case FormatCSV:
		return CSV(w, rel)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Text writes rel as a definitions-style block with literal values, a blank
// line, and the same rows tab-separated under a header line:
//
//	Employees = {Name, Age
//	  "A", 30
//	}
//
//	Name	Age
//	A	30
func Text(w io.Writer, rel *relation.Relation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = {%s\n", rel.Name, strings.Join(rel.Header, ", "))
	for _, row := range rel.Rows {
		b.WriteString("  ")
		for i, v := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(value.Literal(v))
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n\n")

	b.WriteString(strings.Join(rel.Header, "\t"))
	b.WriteByte('\n')
	for _, row := range rel.Rows {
		b.WriteString(strings.Join(cells(row), "\t"))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Table writes rel as a bordered, left-aligned table.
func Table(w io.Writer, rel *relation.Relation) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(rel.Header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rel.Rows {
		table.Append(cells(row))
	}
	table.Render()
	return nil
}

// jsonRelation is the JSON shape of a relation.
type jsonRelation struct {
	Name   string   `json:"name"`
	Header []string `json:"header"`
	Rows   [][]any  `json:"rows"`
}

// ToJSON converts rel to plain values for JSON encoding. Rows are arrays in
// header order; null cells become JSON null.
func ToJSON(rel *relation.Relation) any {
	out := jsonRelation{
		Name:   rel.Name,
		Header: rel.Header,
		Rows:   make([][]any, len(rel.Rows)),
	}
	if out.Header == nil {
		out.Header = []string{}
	}
	for i, row := range rel.Rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = value.ToAny(v)
		}
		out.Rows[i] = vals
	}
	return out
}

// JSON writes rel as one JSON object followed by a newline.
func JSON(w io.Writer, rel *relation.Relation) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(ToJSON(rel))
}

// CSV writes a header record and one record per row. Nulls are empty
// fields.
func CSV(w io.Writer, rel *relation.Relation) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(rel.Header); err != nil {
		return err
	}
	for _, row := range rel.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			if _, isNull := v.(value.Null); !isNull {
				record[i] = value.Cell(v)
			}
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

func cells(row relation.Row) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = value.Cell(v)
	}
	return out
}
