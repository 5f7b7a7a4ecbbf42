// Package store provides SQLite-backed storage for relations.
//
// A saved relation occupies one table of the same name with one untyped
// column per attribute, plus a row in the raq_relations catalog that keeps
// the header order and the save order:
//
//	raq_relations(name, header, row_count, seq)
//
// # Critical Patterns
//
// Untyped columns:
//   - Columns carry no declared type, so SQLite keeps each value's storage
//     class (INTEGER, REAL, TEXT, NULL) and 3 is not widened to 3.0
//   - SQLite has no boolean class; booleans are stored and read back as 0/1
//
// Deterministic listing:
//   - Catalog queries order by seq ASC, name ASC
//   - Databases without a catalog list tables by name
//
// Compiled queries:
//   - QueryRelation runs SQL produced by the querysql package and turns the
//     result set into a relation whose header is the column aliases
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection, so ":memory:" databases are shared by all calls
package store
