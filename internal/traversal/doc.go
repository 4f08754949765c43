// Package traversal walks fragment trees.
//
// Traverse resolves every node's exchange value and termination under a
// scenario and returns a flat, ordered list of FragmentFlow records. A
// traversal always represents one unit of the traversed fragment's reference
// flow: the lead record has magnitude 1 and every other record is per
// reference unit.
//
// Foreground and process nodes expand their children in place, deferring a
// balance child until the conserved quantity of its siblings is known.
// Subfragment nodes traverse their target and either splice its records in
// (descend) or fold them into the termination's score cache (aggregate).
// Background nodes surface their target's lead record under their own
// identity.
//
// The only state a traversal writes is the memoized magnitude of balance
// flows and of subfragment children, via Fragment.CacheBalance.
package traversal
