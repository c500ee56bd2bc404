package router

import (
	"strings"
	"time"

	"github.com/OsmSharp/ui-sub009/pkg/concurrent"
	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/engine/routingalgorithm"
	"github.com/OsmSharp/ui-sub009/pkg/graph"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrGraphMismatch = errors.New("contracted graph does not match the converted base graph")

// convert builds the vehicle's weighted-node free view of the base graph.
// The conversion is deterministic, a stored contracted graph is matched
// against it by generation.
func (r *Router) convert(v interpreter.Vehicle) (*graph.DataSource, error) {
	ds := graph.NewDataSource(r.base)
	stats, err := contractor.NewWeightedNodeConverter(r.in, v, r.log).ConvertAll(ds)
	if err != nil {
		return nil, errors.Wrapf(err, "convert weighted nodes for %s", v)
	}
	r.log.Debug("weighted nodes converted", zap.String("vehicle", v.String()),
		zap.Int("vertices", stats.Vertices), zap.Int("turn_edges", stats.TurnEdges))
	return ds, nil
}

// convertedDataSource returns the frozen converted graph of v, converting
// it once. Concurrent first calls may both convert, the first stored wins.
func (r *Router) convertedDataSource(v interpreter.Vehicle) (*graph.DataSource, error) {
	r.mu.RLock()
	ds, ok := r.converted[v]
	r.mu.RUnlock()
	if ok {
		return ds, nil
	}

	ds, err := r.convert(v)
	if err != nil {
		return nil, err
	}
	ds.Freeze()

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.converted[v]; ok {
		return cur, nil
	}
	r.converted[v] = ds
	return ds, nil
}

func (r *Router) register(v interpreter.Vehicle, ds *graph.DataSource, ch *contractor.ContractedGraph) {
	ds.Freeze()
	p := &profile{
		vehicle: v,
		ds:      ds,
		ch:      ch,
		query:   routingalgorithm.NewRouteAlgorithm(ch, r.cfg.UnpackCacheSize),
	}
	r.mu.Lock()
	r.profiles[v] = p
	r.mu.Unlock()
}

// Preprocess converts and contracts the graph of v and registers it for
// routing. The returned graph may be stored and handed to LoadProfile later.
func (r *Router) Preprocess(v interpreter.Vehicle) (*contractor.ContractedGraph, error) {
	if !v.Valid() {
		return nil, errors.Wrapf(ErrUnknownVehicle, "vehicle %d", v)
	}
	start := time.Now()
	ds, err := r.convertedDataSource(v)
	if err != nil {
		return nil, err
	}

	ch := contractor.BuildContractedGraph(ds, r.in.Weigher(v))
	contractor.NewContractor(ch, r.log.With(zap.String("vehicle", v.String())), r.cfg.Contraction).Contraction()
	r.register(v, ds, ch)

	r.log.Info("profile ready", zap.String("vehicle", v.String()),
		zap.Int("nodes", ch.Metadata.NodeCount), zap.Int("shortcuts", ch.Metadata.ShortcutsCount),
		zap.Duration("took", time.Since(start)))
	return ch, nil
}

// LoadProfile registers a contracted graph built earlier by Preprocess for
// the same base graph.
func (r *Router) LoadProfile(v interpreter.Vehicle, ch *contractor.ContractedGraph) error {
	if !v.Valid() {
		return errors.Wrapf(ErrUnknownVehicle, "vehicle %d", v)
	}
	if !ch.IsChReady() {
		return errors.Errorf("contracted graph for %s is not contracted", v)
	}
	ds, err := r.convertedDataSource(v)
	if err != nil {
		return err
	}
	if ch.Metadata.Generation != ds.Generation() {
		return errors.Wrapf(ErrGraphMismatch, "%s: stored generation %d, converted %d",
			v, ch.Metadata.Generation, ds.Generation())
	}
	r.register(v, ds, ch)
	return nil
}

type preprocessResult struct {
	vehicle interpreter.Vehicle
	ch      *contractor.ContractedGraph
	err     error
}

// PreprocessAll runs Preprocess for every vehicle on a pool of workers.
func (r *Router) PreprocessAll(vehicles []interpreter.Vehicle, workers int) (map[interpreter.Vehicle]*contractor.ContractedGraph, error) {
	wp := concurrent.NewWorkerPool[concurrent.PreprocessJob, preprocessResult](workers, len(vehicles))
	for _, v := range vehicles {
		wp.AddJob(concurrent.PreprocessJob{Vehicle: v})
	}
	wp.Close()
	wp.Start(func(job concurrent.PreprocessJob) preprocessResult {
		ch, err := r.Preprocess(job.Vehicle)
		return preprocessResult{vehicle: job.Vehicle, ch: ch, err: err}
	})
	wp.Wait()

	out := make(map[interpreter.Vehicle]*contractor.ContractedGraph, len(vehicles))
	var failed []string
	for res := range wp.CollectResults() {
		if res.err != nil {
			failed = append(failed, res.err.Error())
			continue
		}
		out[res.vehicle] = res.ch
	}
	if len(failed) > 0 {
		return out, errors.Errorf("preprocess: %s", strings.Join(failed, "; "))
	}
	return out, nil
}
