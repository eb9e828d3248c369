// Package domain contains the core types of the census: the fixed-schema
// repository record, its CSV column order, and the domain error kinds.
// It has no dependencies on adapters or transports beyond the API type it
// converts from.
package domain
