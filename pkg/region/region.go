// Package region tracks named latitude/longitude boxes so that worst errors
// can be broken down by where on the ellipsoid a calculation starts.
package region

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// ErrBadRegion is returned for region definitions that cannot be parsed.
var ErrBadRegion = errors.New("invalid region")

// Presets are the regions available by name alone. Boxes whose minimum
// longitude exceeds the maximum wrap across the antimeridian.
var Presets = map[string]string{
	"north-polar":  "89,-180,90,180",
	"south-polar":  "-90,-180,-89,180",
	"equatorial":   "-1,-180,1,180",
	"antimeridian": "-90,179,90,-179",
}

// Region is a named area made of one or two boxes (two when it wraps
// across the antimeridian).
type Region struct {
	Name   string
	Bounds []orb.Bound
}

// Contains reports whether the point lies inside the region, edges included.
func (r Region) Contains(lat, lon float64) bool {
	p := orb.Point{lon, lat}
	for _, b := range r.Bounds {
		if b.Contains(p) {
			return true
		}
	}
	return false
}

// Parse reads a region definition. It accepts either a preset name or
// "name:minLat,minLon,maxLat,maxLon".
func Parse(s string) (Region, error) {
	name, box, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		preset, ok := Presets[name]
		if !ok {
			return Region{}, fmt.Errorf("%w %q: not a preset and no box given", ErrBadRegion, s)
		}
		box = preset
	}
	if name == "" || strings.ContainsAny(name, " \t") {
		return Region{}, fmt.Errorf("%w %q: name must be non-empty without spaces", ErrBadRegion, s)
	}

	var minLat, minLon, maxLat, maxLon float64
	if _, err := fmt.Sscanf(box, "%g,%g,%g,%g", &minLat, &minLon, &maxLat, &maxLon); err != nil {
		return Region{}, fmt.Errorf("%w %q (expected minLat,minLon,maxLat,maxLon): %v", ErrBadRegion, s, err)
	}
	if minLat < -90 || maxLat > 90 || minLat > maxLat {
		return Region{}, fmt.Errorf("%w %q: latitudes out of order or range", ErrBadRegion, s)
	}
	if minLon < -180 || minLon > 180 || maxLon < -180 || maxLon > 180 {
		return Region{}, fmt.Errorf("%w %q: longitudes out of range", ErrBadRegion, s)
	}

	r := Region{Name: name}
	if minLon <= maxLon {
		r.Bounds = []orb.Bound{bound(minLat, minLon, maxLat, maxLon)}
	} else {
		r.Bounds = []orb.Bound{
			bound(minLat, minLon, maxLat, 180),
			bound(minLat, -180, maxLat, maxLon),
		}
	}
	return r, nil
}

// ParseAll parses every definition, rejecting duplicate names.
func ParseAll(defs []string) ([]Region, error) {
	regions := make([]Region, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		r, err := Parse(d)
		if err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate region name %q", ErrBadRegion, r.Name)
		}
		seen[r.Name] = true
		regions = append(regions, r)
	}
	return regions, nil
}

func bound(minLat, minLon, maxLat, maxLon float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}
