package spatialindex

import (
	"math"
	"sort"
	"sync"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/uber/h3-go/v4"
)

const (
	h3Resolution = 9
	// res 9 edges are ~170m, sampling every 50m never skips a cell.
	h3SampleStep = 50.0
)

// H3Index buckets ways into resolution 9 hexagons.
type H3Index struct {
	mu    sync.RWMutex
	cells map[h3.Cell][]int64
}

func NewH3Index() *H3Index {
	return &H3Index{cells: make(map[h3.Cell][]int64)}
}

func cellOf(c datastructure.Coordinate) h3.Cell {
	return h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lon), h3Resolution)
}

// Insert registers the way in every cell its geometry passes through.
func (h *H3Index) Insert(wayID int64, coords []datastructure.Coordinate) error {
	cells := make(map[h3.Cell]struct{})
	for i, c := range coords {
		cells[cellOf(c)] = struct{}{}
		if i == 0 {
			continue
		}
		prev := coords[i-1]
		segLen := geo.GreatCircleDistance(prev, c)
		steps := int(segLen / h3SampleStep)
		for s := 1; s <= steps; s++ {
			f := float64(s) / float64(steps+1)
			p := datastructure.NewCoordinate(prev.Lat+(c.Lat-prev.Lat)*f, prev.Lon+(c.Lon-prev.Lon)*f)
			cells[cellOf(p)] = struct{}{}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cell := range cells {
		h.cells[cell] = append(h.cells[cell], wayID)
	}
	return nil
}

// kRingIndexesArea returns the disk of cells around center covering radiusKm.
func kRingIndexesArea(center datastructure.Coordinate, radiusKm float64) []h3.Cell {
	origin := cellOf(center)
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * radiusKm * radiusKm

	radius := 1
	diskArea := 7 * originArea
	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}
	return h3.GridDisk(origin, radius)
}

// Query returns candidate ways for bound, ascending. The hexagon cover is
// coarser than bound so callers filter by real distance.
func (h *H3Index) Query(bound orb.Bound) []int64 {
	center := datastructure.CoordinateFromPoint(bound.Center())
	corner := datastructure.CoordinateFromPoint(bound.Max)
	radiusKm := geo.GreatCircleDistance(center, corner) / 1000

	seen := make(map[int64]struct{})
	ids := make([]int64, 0)

	h.mu.RLock()
	for _, cell := range kRingIndexesArea(center, radiusKm) {
		for _, id := range h.cells[cell] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (h *H3Index) NumCells() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cells)
}
