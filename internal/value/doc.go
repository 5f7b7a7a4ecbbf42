// Package value provides the closed set of runtime values stored in relation
// cells and produced by predicate constants.
//
// This package has no internal dependencies besides qerr; every other
// package that handles cell data imports it.
//
// Key design constraints:
//   - Value is sealed; type switches over it are exhaustive.
//   - Equality, ordering and truthiness are defined once here and used
//     unchanged by deduplication, set operations and predicates.
//   - AppendKey is consistent with Equal, so hashed row sets agree with
//     value-wise tuple equality.
package value
