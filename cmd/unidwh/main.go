//-------------------------------------------------------------------------
//
// unidwh: University Data Warehouse Generator
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package main is the entry point for unidwh.
package main

import (
	"fmt"
	"os"

	"github.com/campusmetrics/unidwh/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
