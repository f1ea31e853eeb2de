// Package testing provides the conformance suite and benchmarks for
// implementations of the db.DB interface.
//
// Example usage:
//
//	factory := func() db.DB {
//		return NewMyDatabase()
//	}
//
//	dbtesting.RunDBTests(t, "MyDatabase", factory)
//	dbtesting.RunDBBenchmarks(b, "MyDatabase", factory)
package testing
