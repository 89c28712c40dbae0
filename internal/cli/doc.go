// Package cli handles command-line argument parsing and validation for the
// featgridgo binary.
package cli
