package utils

import (
	"fmt"
	"math"
	"runtime"
)

// GetMemUsage reports heap and GC counters in MiB, for run summaries.
func GetMemUsage() string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	mib := func(b uint64) float64 { return float64(b) / (1 << 20) }
	return fmt.Sprintf("heap %.1f MiB, total alloc %.1f MiB, sys %.1f MiB, %d GCs, %d goroutines",
		mib(ms.HeapAlloc), mib(ms.TotalAlloc), mib(ms.Sys), ms.NumGC, runtime.NumGoroutine())
}

// FirstNonFinite returns the index of the first NaN or Inf, or -1.
func FirstNonFinite(v []float64) int {
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return i
		}
	}
	return -1
}
