// Package record defines the shared data model of the dRS library: the
// Record document type with its reserved identifier field, deep-copy
// semantics that model a serialization boundary, and the IndexSpec/KeyPath
// descriptors used to declare secondary indexes at schema-open time.
//
// The package is a leaf, it has no dependencies on the store or the
// backends. Both backend adapters and the validation layer build on it.
package record
