package spatialindex

import (
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/paulmach/orb"
)

// Index is a way index that can be filled from a graph and queried by box.
type Index interface {
	Insert(wayID int64, coords []datastructure.Coordinate) error
	Query(bound orb.Bound) []int64
}

// IndexWays inserts every base way of g. Overlay pieces are found through
// DataSource.WayPieces of the indexed way.
func IndexWays(g *graph.BaseGraph, idx Index) error {
	ds := graph.NewDataSource(g)
	for _, id := range g.WayIDs() {
		way, _ := g.Way(id)
		coords, err := ds.WayCoordinates(way)
		if err != nil {
			return err
		}
		if err := idx.Insert(id, coords); err != nil {
			return err
		}
	}
	return nil
}
