package concurrent

import (
	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
)

// PreprocessJob asks for the routing graph of one vehicle to be built.
type PreprocessJob struct {
	Vehicle interpreter.Vehicle
}

// SaveGraphJob asks for a contracted graph to be written to storage.
type SaveGraphJob struct {
	Vehicle interpreter.Vehicle
	Graph   *contractor.ContractedGraph
}

type JobI interface {
	PreprocessJob | SaveGraphJob
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

type JobFunc[T JobI, G any] func(job T) G
