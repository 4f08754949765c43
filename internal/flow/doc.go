// Package flow defines the commodity and substance descriptors that fragments
// carry: quantities, flows with their characterization factors, and the
// Input/Output direction convention shared by traversal, balancing and
// display.
package flow
