//go:build cgo

package main

// Registers the duckdb engine.
import _ "github.com/TFMV/tabdiff/pkg/readers/duckdb"
