package analysis

import (
	"math"
	"sort"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// hotspotCellDegrees is the grid resolution for hotspot binning, roughly
// 11 km of latitude. Coarse on purpose: the glossary term is informal and no
// clustering is attempted, just a value count over grid cells.
const hotspotCellDegrees = 0.1

// maxHotspots caps how many cells the summary keeps for reporting.
const maxHotspots = 5

// Hotspot is one grid cell of accident density, identified by its center.
type Hotspot struct {
	Center domain.Geo
	Count  int

	// PlaceName is filled by the reporter when a geocoder is configured.
	PlaceName string
}

type cellKey struct {
	latIdx int
	lonIdx int
}

type cell struct {
	key   cellKey
	count int
}

func (a *Aggregator) binHotspot(g domain.Geo) {
	key := cellKey{
		latIdx: int(math.Floor(g.Lat / hotspotCellDegrees)),
		lonIdx: int(math.Floor(g.Lon / hotspotCellDegrees)),
	}
	c, ok := a.cells[key]
	if !ok {
		c = &cell{key: key}
		a.cells[key] = c
	}
	c.count++
}

// topHotspots returns the n densest grid cells, descending by count with a
// deterministic south-west tie-break.
func (a *Aggregator) topHotspots(n int) []Hotspot {
	cells := make([]*cell, 0, len(a.cells))
	for _, c := range a.cells {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].count != cells[j].count {
			return cells[i].count > cells[j].count
		}
		if cells[i].key.latIdx != cells[j].key.latIdx {
			return cells[i].key.latIdx < cells[j].key.latIdx
		}
		return cells[i].key.lonIdx < cells[j].key.lonIdx
	})
	if len(cells) > n {
		cells = cells[:n]
	}

	out := make([]Hotspot, len(cells))
	for i, c := range cells {
		out[i] = Hotspot{
			Center: domain.Geo{
				Lat: (float64(c.key.latIdx) + 0.5) * hotspotCellDegrees,
				Lon: (float64(c.key.lonIdx) + 0.5) * hotspotCellDegrees,
			},
			Count: c.count,
		}
	}
	return out
}
