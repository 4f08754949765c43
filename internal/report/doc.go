// Package report renders fragments, traversals and impact results as text.
//
// Tree prints a fragment tree one node per line. Each line shows the
// direction arrow, a termination glyph, the short ID, the exchange value and
// the name. The glyphs are:
//
//	---:  boundary flow (null termination)
//	-O    foreground node
//	-*    process
//	-#    subfragment, aggregated
//	-#:   subfragment, descended
//	-B    terminated background
//	--C   cut-off background
//
// The exchange value is wrapped in [] once the node has an observed value
// and in () otherwise. It is prefixed by the scenario modifier of
// fragment.Modifier. Children are grouped by stage.
package report
