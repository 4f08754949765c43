// Package fragment models fragment trees: nodes carrying a flow and a
// direction, their per-scenario exchange values and terminations, and the
// arena that owns them.
//
// Fragments are stored in a Store keyed by fragid.ID and refer to each other
// by ID only. Children are not stored on the node; they are discovered
// through the ChildLookup interface, which Store implements.
//
// A Termination says what a fragment resolves to under a scenario. Its Kind
// is fixed when it is built:
//
//	Null         boundary input or output, nothing further
//	Foreground   the fragment itself; children are expanded in place
//	Process      a modeled process; children are expanded in place
//	Subfragment  another fragment, traversed and spliced or aggregated
//	Background   a background fragment, surfaced as one opaque record
//
// Terminations change only through Store.Terminate and friends. Traversal
// reads them and never changes the Kind.
package fragment
