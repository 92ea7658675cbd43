package types

import (
	"fmt"
	"math"
)

/*
EdgeKey packs the two vertex indices of an undirected edge into one uint64,
smaller index in the low word, so that [4,0] and [0,4] hash the same.
*/
type EdgeKey uint64

func NewEdgeKey(verts [2]int) (packed EdgeKey) {
	for _, vert := range verts {
		if vert < 0 || vert > math.MaxUint32 {
			panic(fmt.Errorf("unable to pack %d and %d into an edge key",
				verts[0], verts[1]))
		}
	}
	lo, hi := verts[0], verts[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	packed = EdgeKey(uint64(lo) | uint64(hi)<<32)
	return
}

// Vertices returns the ascending vertex pair.
func (ek EdgeKey) Vertices() (verts [2]int) {
	verts[0] = int(uint64(ek) & math.MaxUint32)
	verts[1] = int(uint64(ek) >> 32)
	return
}

type EdgeKeySlice []EdgeKey

func (p EdgeKeySlice) Len() int           { return len(p) }
func (p EdgeKeySlice) Less(i, j int) bool { return p[i] < p[j] }
func (p EdgeKeySlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
