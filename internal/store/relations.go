package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/value"
)

// CatalogEntry describes one relation saved with SaveRelation.
type CatalogEntry struct {
	Name     string
	Header   []string
	RowCount int
}

// SaveRelation replaces the table named rel.Name with rel's rows and records
// the header in the catalog. Columns are untyped, so values keep their
// storage class; booleans are stored as the integers 0 and 1.
func (s *Store) SaveRelation(ctx context.Context, rel *relation.Relation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveRelation(ctx, tx, rel); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit relation %s: %w", rel.Name, err)
	}
	return nil
}

// SaveEnvironment saves every relation of env, in name order, in one
// transaction.
func (s *Store) SaveEnvironment(ctx context.Context, env relation.Environment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, name := range env.Names() {
		if err := saveRelation(ctx, tx, env[name]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit environment: %w", err)
	}
	return nil
}

func saveRelation(ctx context.Context, tx *sql.Tx, rel *relation.Relation) error {
	table := QuoteIdent(rel.Name)
	if len(rel.Header) == 0 {
		return fmt.Errorf("relation %s has no attributes", rel.Name)
	}

	cols := make([]string, len(rel.Header))
	marks := make([]string, len(rel.Header))
	for i, a := range rel.Header {
		cols[i] = QuoteIdent(a)
		marks[i] = "?"
	}

	stmts := []string{
		"DROP TABLE IF EXISTS " + table,
		"CREATE TABLE " + table + " (" + strings.Join(cols, ", ") + ")",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare table %s: %w", rel.Name, err)
		}
	}

	insert, err := tx.PrepareContext(ctx,
		"INSERT INTO "+table+" ("+strings.Join(cols, ", ")+") VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", rel.Name, err)
	}
	defer insert.Close()

	args := make([]any, len(rel.Header))
	for _, row := range rel.Rows {
		for i, v := range row {
			args[i] = value.ToAny(v)
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", rel.Name, err)
		}
	}

	header, err := json.Marshal(rel.Header)
	if err != nil {
		return fmt.Errorf("marshal header of %s: %w", rel.Name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO raq_relations (name, header, row_count, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM raq_relations))
		ON CONFLICT(name) DO UPDATE SET
			header = excluded.header,
			row_count = excluded.row_count,
			seq = excluded.seq`,
		rel.Name, string(header), len(rel.Rows))
	if err != nil {
		return fmt.Errorf("record %s in catalog: %w", rel.Name, err)
	}
	return nil
}

// Catalog lists the saved relations in save order.
func (s *Store) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, header, row_count FROM raq_relations ORDER BY seq ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		var header string
		if err := rows.Scan(&e.Name, &header, &e.RowCount); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
			return nil, fmt.Errorf("decode header of %s: %w", e.Name, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadRelations reads every saved relation. A database without catalog
// entries (one not written by raq) is read table by table instead, with
// headers in column order.
func (s *Store) LoadRelations(ctx context.Context) (relation.Environment, error) {
	entries, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if entries, err = s.userTables(ctx); err != nil {
			return nil, err
		}
	}

	env := make(relation.Environment, len(entries))
	for _, e := range entries {
		cols := make([]string, len(e.Header))
		for i, a := range e.Header {
			cols[i] = QuoteIdent(a)
		}
		query := "SELECT " + strings.Join(cols, ", ") + " FROM " + QuoteIdent(e.Name)
		rel, err := s.QueryRelation(ctx, e.Name, query)
		if err != nil {
			return nil, err
		}
		rel.Dedup()
		env[e.Name] = rel
	}
	return env, nil
}

// userTables lists ordinary tables with their columns.
func (s *Store) userTables(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE 'raq_%'
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries := make([]CatalogEntry, 0, len(names))
	for _, name := range names {
		header, err := s.columns(ctx, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, CatalogEntry{Name: name, Header: header})
	}
	return entries, nil
}

func (s *Store) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// QueryRelation runs query and collects the result as a relation named
// name. The header is the result's column names, so queries must alias
// every column to its attribute name. Rows are not deduplicated.
func (s *Store) QueryRelation(ctx context.Context, name, query string, args ...any) (*relation.Relation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", name, err)
	}

	var body []relation.Row
	raw := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		row := make(relation.Row, len(header))
		for i, r := range raw {
			v, err := value.FromAny(r)
			if err != nil {
				return nil, fmt.Errorf("column %s of %s: %w", header[i], name, err)
			}
			row[i] = v
		}
		body = append(body, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return relation.New(name, header, body)
}
