// Package parallel splits index loops across goroutines for the CPU
// kernels and the MNIST decoder.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how For divides work.
type Config struct {
	Enabled      bool // false runs every loop on the calling goroutine
	NumWorkers   int  // upper bound on goroutines per loop
	MinChunkSize int  // indices per goroutine below which a loop stays serial
}

// DefaultConfig uses one worker per schedulable CPU.
func DefaultConfig() Config {
	n := runtime.GOMAXPROCS(0)
	return Config{Enabled: n > 1, NumWorkers: n, MinChunkSize: 64}
}

// For calls f(i) for every i in [0, n) and returns when all calls have
// finished. Indices are split into contiguous chunks, one goroutine each.
// f must be safe to call concurrently for distinct i.
func For(n int, f func(i int), cfg Config) {
	chunk := n
	if cfg.Enabled && cfg.NumWorkers > 1 {
		chunk = max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)
	}
	if chunk >= n {
		for i := range n {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}
