package service

import (
	"context"

	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/OsmSharp/ui-sub009/pkg/router"
	"github.com/OsmSharp/ui-sub009/pkg/server"
	"go.uber.org/zap"
)

type Router interface {
	Resolve(v interpreter.Vehicle, coord datastructure.Coordinate) (router.RouterPoint, error)
	Calculate(v interpreter.Vehicle, from, to router.RouterPoint) (datastructure.Route, error)
	Vehicles() []interpreter.Vehicle
}

type NavigationService struct {
	router Router
	log    *zap.Logger
}

func NewNavigationService(r Router, log *zap.Logger) *NavigationService {
	return &NavigationService{router: r, log: log}
}

func parseVehicle(name string) (interpreter.Vehicle, error) {
	v, err := interpreter.ParseVehicle(name)
	if err != nil {
		return 0, server.WrapErrorf(err, server.ErrBadParamInput, "unknown vehicle %q", name)
	}
	return v, nil
}

func (uc *NavigationService) ResolvePoint(ctx context.Context, vehicle string, coord datastructure.Coordinate) (router.RouterPoint, error) {
	v, err := parseVehicle(vehicle)
	if err != nil {
		return router.RouterPoint{}, err
	}
	return uc.router.Resolve(v, coord)
}

// ShortestPathETA resolves both coordinates and returns the fastest route
// between them, optionally with a simplified geometry.
func (uc *NavigationService) ShortestPathETA(ctx context.Context, vehicle string, src, dst datastructure.Coordinate,
	simplify bool) (datastructure.Route, error) {
	v, err := parseVehicle(vehicle)
	if err != nil {
		return datastructure.Route{}, err
	}
	from, err := uc.router.Resolve(v, src)
	if err != nil {
		return datastructure.Route{}, err
	}
	to, err := uc.router.Resolve(v, dst)
	if err != nil {
		return datastructure.Route{}, err
	}

	route, err := uc.router.Calculate(v, from, to)
	if err != nil {
		if server.CodeOf(err) == server.ErrInternalServerError {
			uc.log.Error("route calculation failed", zap.String("vehicle", vehicle), zap.Error(err))
		}
		return datastructure.Route{}, err
	}
	if simplify {
		route = router.Simplify(route)
	}
	return route, nil
}

// Vehicles lists the vehicles with a preprocessed graph.
func (uc *NavigationService) Vehicles(ctx context.Context) []string {
	vs := uc.router.Vehicles()
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.String())
	}
	return out
}
