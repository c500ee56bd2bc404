package contractor

import (
	"math"

	"github.com/OsmSharp/ui-sub009/pkg/util"
	"go.uber.org/zap"
)

// kosarajuSCC labels every node with its strongly connected component and
// builds the condensation DAG over the original (non shortcut) edges.
func (ch *ContractedGraph) kosarajuSCC(log *zap.Logger) [][]int32 {
	n := int32(len(ch.Nodes))
	components := make([][]int32, 0)

	order := make([]int32, 0, n)
	visited := make([]bool, n)

	for i := int32(0); i < n; i++ {
		if !visited[i] {
			ch.dfs(i, &order, visited, false)
		}
	}

	order = util.ReverseG[int32](order)

	visited = make([]bool, n)
	roots := make([]int32, n)

	for _, v := range order {
		if visited[v] {
			continue
		}
		component := make([]int32, 0)
		ch.dfs(v, &component, visited, true)
		components = append(components, component)
		root := int32(math.MaxInt32)
		for _, node := range component {
			root = min(root, node)
		}
		for _, node := range component {
			roots[node] = root
		}
	}

	ch.SCC = make([]int32, n)
	ch.SCCNodesCount = make([]int32, len(components))
	for i, component := range components {
		for _, v := range component {
			ch.SCC[v] = int32(i)
		}
		ch.SCCNodesCount[i] = int32(len(component))
	}

	ch.SCCCondensationAdj = make([][]int32, len(components))
	seen := make(map[[2]int32]struct{})
	for v := int32(0); v < n; v++ {
		for _, id := range ch.OutEdges[v] {
			e := ch.Edges[id]
			if e.IsShortcut || roots[v] == roots[e.ToNodeID] {
				continue
			}
			link := [2]int32{ch.SCC[v], ch.SCC[e.ToNodeID]}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			ch.SCCCondensationAdj[link[0]] = append(ch.SCCCondensationAdj[link[0]], link[1])
		}
	}

	log.Info("strongly connected components", zap.Int("count", len(components)))
	return components
}

func (ch *ContractedGraph) dfs(v int32, output *[]int32, visited []bool, reversed bool) {
	visited[v] = true

	if !reversed {
		for _, id := range ch.OutEdges[v] {
			e := ch.Edges[id]
			if !e.IsShortcut && !visited[e.ToNodeID] {
				ch.dfs(e.ToNodeID, output, visited, reversed)
			}
		}
	} else {
		for _, id := range ch.InEdges[v] {
			e := ch.Edges[id]
			if !e.IsShortcut && !visited[e.FromNodeID] {
				ch.dfs(e.FromNodeID, output, visited, reversed)
			}
		}
	}

	*output = append(*output, v)
}
