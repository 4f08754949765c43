// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It maps
// cobra commands onto the operations of package app.
package cli
