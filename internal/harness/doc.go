// Package harness runs query scenarios: YAML files that pair relation
// definitions with queries and their expected results or error kinds.
//
// A scenario looks like:
//
//	name: selection
//	description: Selection keeps matching rows
//	definitions: |
//	  Employees(Name, Age) = {
//	    "A", 30
//	    "B", 25
//	  }
//	sql: true
//	cases:
//	  - query: σ Age > 26 (Employees)
//	    expect:
//	      header: [Name, Age]
//	      rows:
//	        - ["A", 30]
//	  - query: π Salary (Employees)
//	    error: UNKNOWN_ATTRIBUTE
//
// Every case runs through the evaluator with a fixed query ID, so results
// can be snapshotted to golden files (see RunWithGolden). With sql: true,
// each successful case is also compiled to SQL, run against an in-memory
// SQLite copy of the relations and compared with the evaluator's result.
package harness
