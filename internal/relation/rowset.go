package relation

import (
	"github.com/dchest/siphash"

	"github.com/qimcis/raq/internal/value"
)

// Fixed keys: row hashes never leave the process.
const (
	k0 = 0x736f6d6570736575
	k1 = 0x646f72616e646f6d
)

// RowSet is a set of rows under value-wise tuple equality.
//
// Rows are bucketed by the siphash of their canonical key; buckets are
// searched with value.Equal, so hash collisions never merge distinct rows.
type RowSet struct {
	buckets map[uint64][]Row
	n       int
	buf     []byte
}

// NewRowSet creates an empty set sized for about n rows.
func NewRowSet(n int) *RowSet {
	return &RowSet{buckets: make(map[uint64][]Row, n)}
}

func (s *RowSet) hash(row Row) uint64 {
	s.buf = s.buf[:0]
	for _, v := range row {
		s.buf = value.AppendKey(s.buf, v)
	}
	return siphash.Hash(k0, k1, s.buf)
}

// Add inserts row and reports whether it was not already present.
func (s *RowSet) Add(row Row) bool {
	h := s.hash(row)
	for _, existing := range s.buckets[h] {
		if EqualRow(existing, row) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], row)
	s.n++
	return true
}

// Contains reports whether an equal row is in the set.
func (s *RowSet) Contains(row Row) bool {
	for _, existing := range s.buckets[s.hash(row)] {
		if EqualRow(existing, row) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct rows.
func (s *RowSet) Len() int {
	return s.n
}

// EqualRow reports whether a and b hold equal values position by position.
func EqualRow(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
