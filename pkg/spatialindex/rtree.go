package spatialindex

import (
	"sort"
	"sync"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	// degenerate bounds get this extent so rtreego accepts them.
	minExtent = 1e-9
)

type wayLeaf struct {
	wayID int64
	rect  rtreego.Rect
}

func (l *wayLeaf) Bounds() rtreego.Rect {
	return l.rect
}

// Rtree indexes way bounding boxes. Inserts and queries may run concurrently.
type Rtree struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	size int
}

func NewRtree() *Rtree {
	return &Rtree{tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)}
}

func toRect(b orb.Bound) (rtreego.Rect, error) {
	lengths := []float64{
		max(b.Max.Lon()-b.Min.Lon(), minExtent),
		max(b.Max.Lat()-b.Min.Lat(), minExtent),
	}
	return rtreego.NewRect(rtreego.Point{b.Min.Lon(), b.Min.Lat()}, lengths)
}

// Insert adds the bounding box of a way geometry.
func (r *Rtree) Insert(wayID int64, coords []datastructure.Coordinate) error {
	rect, err := toRect(datastructure.Bound(coords))
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Insert(&wayLeaf{wayID: wayID, rect: rect})
	r.size++
	return nil
}

// Query returns the ids of ways whose bounding box intersects bound, ascending.
func (r *Rtree) Query(bound orb.Bound) []int64 {
	rect, err := toRect(bound)
	if err != nil {
		return nil
	}
	r.mu.RLock()
	hits := r.tree.SearchIntersect(rect)
	r.mu.RUnlock()

	ids := make([]int64, 0, len(hits))
	seen := make(map[int64]struct{}, len(hits))
	for _, hit := range hits {
		leaf := hit.(*wayLeaf)
		if _, ok := seen[leaf.wayID]; ok {
			continue
		}
		seen[leaf.wayID] = struct{}{}
		ids = append(ids, leaf.wayID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Rtree) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}
