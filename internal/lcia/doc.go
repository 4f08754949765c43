// Package lcia holds life-cycle impact assessment results.
//
// A Result collects the impact of a set of components for one indicator
// quantity. Each component is an AggregateScore built from either detailed
// entries (an exchange value times a characterization factor) or summary
// entries (a node weight times a unit score). Detailed entries that collide on
// the same (process, flow) key are merged into a summary when their factors
// agree and rejected with a DuplicateResultError when they do not.
package lcia
