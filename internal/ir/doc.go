// Package ir provides the immutable data-table types, cross-run statistics and
// run records shared by every other package.
//
// ir imports only the condition package. Compiled conditions live on the
// table types, so a loaded Tables value is ready for the engine without
// further parsing.
//
// Key design constraints:
//   - Tables are read-only once compiled; the engine never mutates them
//   - Talent and event ids are plain ints, as in the source data
//   - Run records hold ids only, never pointers into Tables
//   - All JSON tags use snake_case
//   - Runs are ordered by a store-assigned seq, never by wall-clock time
package ir
