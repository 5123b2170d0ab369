// Package main provides the entry point for cachesim.
// cachesim sweeps cache organizations over a memory-access trace.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	printUsage(os.Stdout)

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "cachesim - trace-driven cache simulator")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: cachesim [options] <trace> <output>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --config   Path to a JSON sweep plan")
	fmt.Fprintln(w, "  --workers  Number of configurations simulated at once")
	fmt.Fprintln(w, "  --verify   Cross-check against the Akita directory model")
	fmt.Fprintln(w, "  --csv      Write CSV instead of grouped hit counts")
	fmt.Fprintln(w, "  --db       Record results into a SQLite database")
	fmt.Fprintln(w, "  -v         Verbose output")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'go run ./cmd/cachesim' for the full CLI.")
}
