// Package hclgrid is the HCL implementation of the grid loading and argument
// binding interfaces defined in the config package. It parses grid files,
// decodes them into the schema structs and translates those into the
// format-agnostic config model the builder consumes.
package hclgrid
