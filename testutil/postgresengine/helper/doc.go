// Package helper provides testing utilities for PostgreSQL order store testing.
//
// This package contains shared testing infrastructure: spies for the
// observability interfaces, schema management, and fixture helpers used
// across the PostgreSQL order store test suite.
package helper
