package region

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// Index answers which regions contain a point.
type Index struct {
	tree    rtree.RTreeG[int]
	regions []Region
}

// NewIndex builds an index over regions. Region i is reported as i by
// Containing.
func NewIndex(regions []Region) *Index {
	ix := &Index{regions: regions}
	for i, r := range regions {
		for _, b := range r.Bounds {
			ix.tree.Insert(b.Min, b.Max, i)
		}
	}
	return ix
}

// Len returns the number of regions.
func (ix *Index) Len() int { return len(ix.regions) }

// Region returns region i.
func (ix *Index) Region(i int) Region { return ix.regions[i] }

// Containing calls fn once for every region containing (lat, lon), in
// ascending region order.
func (ix *Index) Containing(lat, lon float64, fn func(i int)) {
	if ix == nil || len(ix.regions) == 0 {
		return
	}
	p := orb.Point{lon, lat}
	var hits []int
	ix.tree.Search(p, p, func(_, _ [2]float64, i int) bool {
		if !slices.Contains(hits, i) {
			hits = append(hits, i)
		}
		return true
	})
	slices.Sort(hits)
	for _, i := range hits {
		fn(i)
	}
}
