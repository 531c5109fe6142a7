// Package validate implements the naming and index-descriptor rules that
// guard the record store. All checks are pure functions over fixed patterns
// and run synchronously before any backend is touched: a store Start call
// either passes validation completely or fails with zero schema changes.
//
// Conventions enforced here:
//   - database names end in "-db"
//   - table names contain the "-" separator (a bare word is rejected)
//   - index names end in "-idx"
//   - key path segments are alphanumeric, dot-separated
//   - index options are limited to the boolean "unique" and "multiEntry"
//     keys, and multiEntry never combines with a compound key path
package validate
