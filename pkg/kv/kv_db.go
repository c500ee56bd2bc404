package kv

import (
	"context"
	"fmt"

	"github.com/OsmSharp/ui-sub009/pkg/contractor"
	"github.com/OsmSharp/ui-sub009/pkg/datastructure"
	"github.com/OsmSharp/ui-sub009/pkg/interpreter"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrGraphNotFound = errors.New("contracted graph not found")

// chunkSize is the number of nodes or edges stored under one key.
const chunkSize = 1 << 16

type KVDB struct {
	db  *badger.DB
	log *zap.Logger
}

func NewKVDB(db *badger.DB, log *zap.Logger) *KVDB {
	return &KVDB{db: db, log: log}
}

// Open opens or creates the badger store in dir. An empty dir keeps
// everything in memory.
func Open(dir string, log *zap.Logger) (*KVDB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger at %q", dir)
	}
	return NewKVDB(db, log), nil
}

// header is everything about a contracted graph except its nodes and edges.
type header struct {
	Metadata           contractor.Metadata
	Ready              bool
	NodeChunks         int
	EdgeChunks         int
	SCC                []int32
	SCCNodesCount      []int32
	SCCCondensationAdj [][]int32
}

func headerKey(v interpreter.Vehicle) []byte {
	return []byte(fmt.Sprintf("ch/%s/header", v))
}

func nodesKey(v interpreter.Vehicle, chunk int) []byte {
	return []byte(fmt.Sprintf("ch/%s/nodes/%06d", v, chunk))
}

func edgesKey(v interpreter.Vehicle, chunk int) []byte {
	return []byte(fmt.Sprintf("ch/%s/edges/%06d", v, chunk))
}

func chunks(n int) int {
	return (n + chunkSize - 1) / chunkSize
}

type batchData struct {
	key   []byte
	value any
}

// SaveContractedGraph replaces the stored graph of v. A save that fails
// halfway leaves no graph for v rather than a mix of old and new chunks.
func (k *KVDB) SaveContractedGraph(ctx context.Context, v interpreter.Vehicle, ch *contractor.ContractedGraph) error {
	h := header{
		Metadata:           ch.Metadata,
		Ready:              ch.Ready,
		NodeChunks:         chunks(len(ch.Nodes)),
		EdgeChunks:         chunks(len(ch.Edges)),
		SCC:                ch.SCC,
		SCCNodesCount:      ch.SCCNodesCount,
		SCCCondensationAdj: ch.SCCCondensationAdj,
	}

	// a write batch commits in parts once it outgrows one transaction, so the
	// old header must be gone before any of its chunks are overwritten.
	if err := k.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(headerKey(v))
	}); err != nil {
		return errors.Wrapf(err, "drop %s header", v)
	}

	batches := make([]batchData, 0, h.NodeChunks+h.EdgeChunks+1)
	for i := 0; i < h.NodeChunks; i++ {
		end := min((i+1)*chunkSize, len(ch.Nodes))
		batches = append(batches, batchData{key: nodesKey(v, i), value: ch.Nodes[i*chunkSize : end]})
	}
	for i := 0; i < h.EdgeChunks; i++ {
		end := min((i+1)*chunkSize, len(ch.Edges))
		batches = append(batches, batchData{key: edgesKey(v, i), value: ch.Edges[i*chunkSize : end]})
	}
	// header goes last, a graph without one is never loaded.
	batches = append(batches, batchData{key: headerKey(v), value: h})

	if err := k.saveBatch(ctx, batches); err != nil {
		return errors.Wrapf(err, "save %s graph", v)
	}
	k.log.Info("contracted graph saved", zap.String("vehicle", v.String()),
		zap.Int("nodes", len(ch.Nodes)), zap.Int("edges", len(ch.Edges)))
	return nil
}

func (k *KVDB) saveBatch(ctx context.Context, data []batchData) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, d := range data {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		val, err := encode(d.value)
		if err != nil {
			return errors.Wrapf(err, "encode %s", d.key)
		}
		if err := batch.Set(d.key, val); err != nil {
			return err
		}
	}
	return batch.Flush()
}

func (k *KVDB) get(key []byte, v any) error {
	return k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return decode(val, v)
	})
}

// LoadContractedGraph reads the graph of v saved by SaveContractedGraph.
func (k *KVDB) LoadContractedGraph(ctx context.Context, v interpreter.Vehicle) (*contractor.ContractedGraph, error) {
	var h header
	if err := k.get(headerKey(v), &h); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.Wrapf(ErrGraphNotFound, "vehicle %s", v)
		}
		return nil, errors.Wrapf(err, "load %s header", v)
	}

	ch := contractor.NewContractedGraph()
	for i := 0; i < h.NodeChunks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var nodes []datastructure.CHNode
		if err := k.get(nodesKey(v, i), &nodes); err != nil {
			return nil, errors.Wrapf(err, "load %s nodes chunk %d", v, i)
		}
		for _, n := range nodes {
			ch.AddNode(n)
		}
	}
	for i := 0; i < h.EdgeChunks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var edges []datastructure.EdgeCH
		if err := k.get(edgesKey(v, i), &edges); err != nil {
			return nil, errors.Wrapf(err, "load %s edges chunk %d", v, i)
		}
		for _, e := range edges {
			ch.AddEdge(e)
		}
	}

	ch.Metadata = h.Metadata
	ch.Ready = h.Ready
	ch.SCC = h.SCC
	ch.SCCNodesCount = h.SCCNodesCount
	ch.SCCCondensationAdj = h.SCCCondensationAdj
	return ch, nil
}

// Vehicles lists the vehicles that have a stored graph.
func (k *KVDB) Vehicles() ([]interpreter.Vehicle, error) {
	out := make([]interpreter.Vehicle, 0)
	err := k.db.View(func(txn *badger.Txn) error {
		for _, v := range interpreter.AllVehicles() {
			_, err := txn.Get(headerKey(v))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

func (k *KVDB) Close() error {
	return k.db.Close()
}
