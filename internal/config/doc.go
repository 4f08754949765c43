// Package config defines the format-agnostic model of a fragment model file:
// quantities, flows, processes and fragment trees with their exchange values
// and terminations. The Loader interface is implemented per file format; the
// HCL implementation lives in package hcl.
//
// The Model is the single input of package builder.
package config
