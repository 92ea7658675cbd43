package utils

import (
	"runtime"
	"sync"
)

// PartitionMap splits the index range [0, MaxIndex) into ParallelDegree
// contiguous buckets whose sizes differ by at most one.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // [start, end) of each bucket
}

func NewPartitionMap(parallelDegree, maxIndex int) (pm *PartitionMap) {
	if parallelDegree < 1 {
		parallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: parallelDegree,
		Partitions:     make([][2]int, parallelDegree),
	}
	for bn := range pm.Partitions {
		pm.Partitions[bn] = pm.Split1D(bn)
	}
	return
}

// DefaultParallelDegree never exceeds the work available.
func DefaultParallelDegree(maxIndex int) (np int) {
	np = min(runtime.NumCPU(), maxIndex)
	if np < 1 {
		np = 1
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bn int) (kMin, kMax int) {
	return pm.Partitions[bn][0], pm.Partitions[bn][1]
}

// Split1D returns bucket bn; the first MaxIndex%ParallelDegree buckets
// carry one extra index.
func (pm *PartitionMap) Split1D(bn int) (bucket [2]int) {
	var (
		size  = pm.MaxIndex / pm.ParallelDegree
		extra = pm.MaxIndex % pm.ParallelDegree
	)
	bucket[0] = bn*size + min(bn, extra)
	bucket[1] = bucket[0] + size
	if bn < extra {
		bucket[1]++
	}
	return
}

// Run calls work once per non-empty bucket, each on its own goroutine, and
// waits. Buckets are disjoint so work may write index-owned output without
// locks.
func (pm *PartitionMap) Run(work func(bn, kMin, kMax int)) {
	var wg sync.WaitGroup
	for bn := range pm.Partitions {
		kMin, kMax := pm.GetBucketRange(bn)
		if kMin == kMax {
			continue
		}
		bn := bn
		wg.Add(1)
		go func() {
			defer wg.Done()
			work(bn, kMin, kMax)
		}()
	}
	wg.Wait()
}
