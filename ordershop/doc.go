// Package ordershop contains the storage-agnostic core of the order shop:
// the Order aggregate with its stock accounting and cancellation rules,
// the search criteria and association types used to describe queries,
// and the projection shapes returned by the loaders.
//
// The package has no database dependencies. All SQL shaping lives in
// DB type-specific engine packages, e.g. postgresengine.
package ordershop
