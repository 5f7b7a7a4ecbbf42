package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/value"
)

// ReadParquet reads a parquet file into one relation called name. The
// header follows the schema's top-level field order. Cells of types without
// a Value variant (timestamps, lists, groups) are kept as their printed form.
func ReadParquet(name string, r io.ReaderAt, size int64) (*relation.Relation, error) {
	pqFile, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, qerr.New(qerr.KindDefinition, "failed to open parquet file: %v", err)
	}

	fields := pqFile.Schema().Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name()
	}

	reader := parquet.NewReader(pqFile)
	defer func() { _ = reader.Close() }()

	var rows []relation.Row
	for {
		rec := make(map[string]any)
		if err := reader.Read(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, qerr.New(qerr.KindDefinition, "failed to read row %d: %v", len(rows)+1, err)
		}

		row := make(relation.Row, len(header))
		for i, a := range header {
			row[i] = parquetCell(rec[a])
		}
		rows = append(rows, row)
	}

	rel, err := relation.New(name, header, rows)
	if err != nil {
		return nil, err
	}
	rel.Dedup()
	return rel, nil
}

func parquetCell(v any) value.Value {
	if s, ok := v.(string); ok {
		return text(s)
	}
	if cell, err := value.FromAny(v); err == nil {
		return cell
	}
	return text(fmt.Sprint(v))
}
