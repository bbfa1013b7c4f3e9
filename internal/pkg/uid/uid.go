// Package uid generates identifiers: UUIDs for correlation, snowflake numbers
// for primary keys and ULIDs for short-lived records.
package uid

// NumberID generates unique int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
