// Package hcl provides the HCL implementation of config.Loader. It parses
// model files, decodes their blocks with gohcl and translates them into the
// format-agnostic config.Model. Map-valued attributes are decoded through
// go-cty.
package hcl
