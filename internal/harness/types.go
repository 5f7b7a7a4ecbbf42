package harness

// CaseResult is the outcome of one scenario case.
type CaseResult struct {
	// Query is the case's query text.
	Query string `json:"query"`

	// QueryID is the ID the engine assigned to the query.
	QueryID string `json:"query_id"`

	// Name is the result relation's display name.
	Name string `json:"name,omitempty"`

	// Header is the result header, in order.
	Header []string `json:"header,omitempty"`

	// Rows are the result rows rendered as literals, sorted for stable
	// comparison.
	Rows []string `json:"rows,omitempty"`

	// Error is the error kind, when the query failed.
	Error string `json:"error,omitempty"`

	// Pass indicates the case met its expectation.
	Pass bool `json:"pass"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every case met its expectation.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in scenario order.
	Cases []CaseResult `json:"cases"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCase records a case outcome. A failed case fails the result.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if !c.Pass {
		r.Pass = false
	}
}
