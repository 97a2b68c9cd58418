// Package listcore is the list-management core shared by every entity screen.
//
// A List holds a cached copy of one remote collection and derives what a
// screen shows from it in a fixed pipeline:
//
//	load -> filter/search -> sort -> paginate
//	                              \-> batch selection
//
// Mutations go through a Dispatcher which validates, checks capabilities,
// calls the remote Service and then reduces the outcome into the cache with
// Apply. Bulk mutations never roll back the succeeded subset; a partial
// failure is reported as a warning and only succeeded ids touch the cache.
//
// The package knows nothing about concrete entities. Per-entity behavior is
// injected: a Matcher supplies searchable text and status, Columns supply
// sortable values, and the record type itself implements Record.
package listcore
