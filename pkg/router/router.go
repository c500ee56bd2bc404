package router

import (
	"errors"
	"sort"
	"sync"

	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/engine/routingalgorithm"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/OsmSharp/ui-sub009/pkg/server"
	"github.com/OsmSharp/ui-sub009/pkg/snap"
	"go.uber.org/zap"
)

var (
	ErrUnroutableLocation = errors.New("no routable road near location")
	ErrNoPathFound        = errors.New("no path found")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrUnknownVehicle     = errors.New("unknown vehicle")
)

type Config struct {
	// SearchRadius is the snapping radius in meters.
	SearchRadius float64
	// UnpackCacheSize bounds the shortcut unpack cache of every CH query, 0 disables it.
	UnpackCacheSize int
	// MaxLocalSettled bounds the search that connects a resolved point to the contracted graph.
	MaxLocalSettled int
	// UseAStar picks A* instead of bidirectional Dijkstra when no contracted graph is loaded.
	UseAStar    bool
	Contraction contractor.Options
}

func DefaultConfig() Config {
	return Config{
		SearchRadius:    100,
		UnpackCacheSize: 4096,
		MaxLocalSettled: 2000,
		Contraction:     contractor.DefaultOptions(),
	}
}

// RouterPoint is a coordinate snapped onto a way. It holds no overlay state,
// Calculate splices it again into a private overlay. WayID is always a base
// graph way, so a point stays valid across profiles.
type RouterPoint struct {
	Vehicle interpreter.Vehicle     `json:"vehicle"`
	Coord   datastructure.Coordinate `json:"coordinate"`
	Snapped datastructure.Coordinate `json:"snapped"`
	WayID   int64                    `json:"way_id"`
	// Distance between Coord and Snapped in meters.
	Distance float64 `json:"distance"`
}

// profile is the preprocessed graph of one vehicle. ds is frozen, every
// request works on a fork of it.
type profile struct {
	vehicle interpreter.Vehicle
	ds      *graph.DataSource
	ch      *contractor.ContractedGraph
	query   *routingalgorithm.RouteAlgorithm
}

// Router resolves coordinates and calculates routes over one base graph.
// Safe for concurrent use.
type Router struct {
	base     *graph.BaseGraph
	in       *interpreter.Interpreter
	resolver *snap.PointResolver
	cfg      Config
	log      *zap.Logger

	mu        sync.RWMutex
	profiles  map[interpreter.Vehicle]*profile
	// converted holds the frozen weighted-node free graph of every vehicle
	// used so far, with or without a contracted graph.
	converted map[interpreter.Vehicle]*graph.DataSource
}

func NewRouter(base *graph.BaseGraph, index snap.SpatialIndex, in *interpreter.Interpreter, cfg Config, log *zap.Logger) *Router {
	return &Router{
		base:      base,
		in:        in,
		resolver:  snap.NewPointResolver(index, in, log),
		cfg:       cfg,
		log:       log,
		profiles:  make(map[interpreter.Vehicle]*profile),
		converted: make(map[interpreter.Vehicle]*graph.DataSource),
	}
}

// Vehicles lists the vehicles with a contracted graph, in enum order.
func (r *Router) Vehicles() []interpreter.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interpreter.Vehicle, 0, len(r.profiles))
	for v := range r.profiles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Router) profile(v interpreter.Vehicle) (*profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[v]
	return p, ok
}

// dataSource returns the frozen graph requests for v fork from. Without a
// contracted graph it is converted on first use, so plain search sees the
// same turn restrictions and barriers.
func (r *Router) dataSource(v interpreter.Vehicle) (*graph.DataSource, error) {
	if p, ok := r.profile(v); ok {
		return p.ds, nil
	}
	ds, err := r.convertedDataSource(v)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "prepare %s graph", v)
	}
	return ds, nil
}

// Resolve snaps coord onto the closest way v may use.
func (r *Router) Resolve(v interpreter.Vehicle, coord datastructure.Coordinate) (RouterPoint, error) {
	if !v.Valid() {
		return RouterPoint{}, server.WrapErrorf(ErrUnknownVehicle, server.ErrBadParamInput, "unknown vehicle %d", v)
	}
	if !coord.Valid() {
		return RouterPoint{}, server.WrapErrorf(ErrInvalidCoordinate, server.ErrBadParamInput,
			"invalid coordinate (%f, %f)", coord.Lat, coord.Lon)
	}

	ds, err := r.dataSource(v)
	if err != nil {
		return RouterPoint{}, err
	}
	fork := ds.Fork()
	res, found, err := r.resolver.ResolveAndAddNode(fork, v, coord, r.cfg.SearchRadius, nil)
	if err != nil {
		return RouterPoint{}, server.WrapErrorf(err, server.ErrInternalServerError, "resolve (%f, %f)", coord.Lat, coord.Lon)
	}
	if !found {
		return RouterPoint{}, server.WrapErrorf(ErrUnroutableLocation, server.ErrNotFound,
			"no road for %s within %.0fm of (%f, %f)", v, r.cfg.SearchRadius, coord.Lat, coord.Lon)
	}
	return RouterPoint{
		Vehicle:  v,
		Coord:    coord,
		Snapped:  res.Vertex.Coord,
		WayID:    fork.OriginWayID(res.Way.ID),
		Distance: res.Projection.Distance,
	}, nil
}

// Calculate returns the fastest route for v between two resolved points.
func (r *Router) Calculate(v interpreter.Vehicle, from, to RouterPoint) (datastructure.Route, error) {
	if !v.Valid() {
		return datastructure.Route{}, server.WrapErrorf(ErrUnknownVehicle, server.ErrBadParamInput, "unknown vehicle %d", v)
	}

	p, hasProfile := r.profile(v)
	ds, err := r.dataSource(v)
	if err != nil {
		return datastructure.Route{}, err
	}
	fork := ds.Fork()

	src, err := r.replay(fork, from)
	if err != nil {
		return datastructure.Route{}, err
	}
	dst, err := r.replay(fork, to)
	if err != nil {
		return datastructure.Route{}, err
	}

	var legs []leg
	if hasProfile && p.ch.IsChReady() {
		legs, err = r.calculateCH(fork, p, src.ID, dst.ID)
	} else {
		legs, err = r.calculatePlain(fork, v, src.ID, dst.ID)
	}
	if err != nil {
		return datastructure.Route{}, err
	}
	return assembleRoute(v, src.Coord, legs, fork.Tags()), nil
}

// replay splices a RouterPoint into fork.
func (r *Router) replay(fork *graph.DataSource, rp RouterPoint) (datastructure.Vertex, error) {
	res, found, err := r.resolver.ResolveOnWay(fork, rp.WayID, rp.Snapped)
	if err != nil {
		return datastructure.Vertex{}, server.WrapErrorf(err, server.ErrInternalServerError, "replay point on way %d", rp.WayID)
	}
	if !found {
		return datastructure.Vertex{}, server.WrapErrorf(ErrUnroutableLocation, server.ErrNotFound,
			"way %d is not part of the %s graph", rp.WayID, rp.Vehicle)
	}
	return res.Vertex, nil
}

func (r *Router) noPath(v interpreter.Vehicle, from, to int64) error {
	return server.WrapErrorf(ErrNoPathFound, server.ErrNotFound, "no %s route from vertex %d to %d", v, from, to)
}

func (r *Router) calculatePlain(fork *graph.DataSource, v interpreter.Vehicle, from, to int64) ([]leg, error) {
	g := routingalgorithm.NewGraphRouter(fork, r.in.Weigher(v))
	var (
		path  routingalgorithm.GraphPath
		found bool
	)
	if r.cfg.UseAStar {
		path, found = g.ShortestPathAStar(from, to, interpreter.TopSpeed(v))
	} else {
		path, found = g.ShortestPath(from, to)
	}
	if !found {
		return nil, r.noPath(v, from, to)
	}
	return arcLegs(fork, path.Arcs), nil
}
