/*
Package builder turns a config.Model into live objects: a catalog of
quantities, flows and processes, and a fragment store holding every fragment
tree with its exchange values and terminations.

Construction is a multi-phase process:

 1. Entities: quantities, flows (with their factors), conversions and
    processes are registered in the catalog.

 2. Fragments: every fragment block becomes a node in the store, children
    under their parents, with its cached, observed and scenario exchange
    values. Balance flags are set once all siblings exist.

 3. Terminations: fragments are terminated to processes, to other fragments
    or to themselves. Terminations are resolved only after every fragment
    exists, so a model may refer to fragments defined later or in another
    file. Process terminations may ask for child flows, which creates one
    child per non-reference exchange of the process.

 4. Validation: the subfragment graph between reference fragments is checked
    for cycles, since a cyclic model can never be traversed.

Every phase collects all of its problems before failing, so a broken model
reports everything wrong with it at once.
*/
package builder
