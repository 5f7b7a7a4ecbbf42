// Package loader reads relation definitions into a relation.Environment.
//
// Supported sources, chosen by file extension:
//
//	.txt and anything else   text blocks: Name(A, B) = { rows }
//	.cue                     relations: Name: {header: [...], rows: [[...]]}
//	.parquet                 one relation named after the file stem
//	.db .sqlite .sqlite3     every relation saved in a store database
//	<any>.zst                zstd-compressed, dispatched on the inner extension
//
// Text and CUE sources may also carry queries ("Query: <expr>" lines, or a
// CUE queries list). Every loaded relation is deduplicated.
package loader
