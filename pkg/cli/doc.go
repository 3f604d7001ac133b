// Package cli implements the deploykit command line interface.
package cli
