// Command cachesim runs a trace through a sweep of cache organizations and
// writes the hit counts of every configuration.
//
// Usage:
//
//	cachesim [flags] <trace> <output>
//
// The trace holds one `L 0x<addr>` or `S 0x<addr>` record per line. The
// output holds one line per sweep group:
//
//	direct-mapped 1KB, 4KB, 16KB, 32KB
//	set-associative 2, 4, 8, 16 ways at 16KB
//	fully-associative exact LRU (512 x 32B)
//	fully-associative tree pseudo-LRU (512 x 32B)
//	write-on-miss 2, 4, 8, 16 ways
//	prefetch-always 2, 4, 8, 16 ways
//	prefetch-on-miss 2, 4, 8, 16 ways
//
// Each line lists "hits,accesses;" tuples. Defaults for --workers, --db and
// --config can be set with CACHESIM_WORKERS, CACHESIM_DB and CACHESIM_CONFIG,
// also read from a .env file in the working directory.
package main

import (
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
