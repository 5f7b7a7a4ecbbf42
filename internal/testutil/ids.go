package testutil

// FixedIDGenerator returns the same query ID every time.
//
// Unlike engine.FixedGenerator, which returns IDs in sequence and panics
// when they run out, this generator suits tests that run an unknown number
// of queries and only need stable output for golden comparison.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed query ID generator.
// If id is empty, Generate() returns "test-query-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-query-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed query ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
