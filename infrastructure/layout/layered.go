// Package layout positions questionnaire nodes for display. Layout is
// advisory: it never rejects a graph.
package layout

import (
	"context"
	"sort"

	"questionnaire-builder/application/ports"
	"questionnaire-builder/domain/config"
)

// LayeredEngine lays graphs out top to bottom. Each node sits one rank
// below its deepest predecessor; edges closing a cycle are ignored and
// nodes sharing a rank keep the order they were given in.
type LayeredEngine struct {
	configs ports.DomainConfigProvider
}

// NewLayeredEngine creates a layered layout engine
func NewLayeredEngine(configs ports.DomainConfigProvider) *LayeredEngine {
	return &LayeredEngine{configs: configs}
}

// Layout returns the centre of every node
func (e *LayeredEngine) Layout(ctx context.Context, nodes []string, edges []ports.LayoutEdge) (map[string]ports.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := e.params()

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n]; !dup {
			index[n] = i
		}
	}

	adj := make([][]int, len(nodes))
	for _, edge := range edges {
		from, okFrom := index[edge.Source]
		to, okTo := index[edge.Target]
		if !okFrom || !okTo {
			continue
		}
		adj[from] = append(adj[from], to)
	}

	forward := acyclic(adj)
	ranks := longestPathRanks(forward)

	layers := make(map[int][]int)
	maxRank := 0
	for i := range nodes {
		if index[nodes[i]] != i {
			continue
		}
		r := ranks[i]
		layers[r] = append(layers[r], i)
		if r > maxRank {
			maxRank = r
		}
	}

	widest := 0
	for _, layer := range layers {
		if len(layer) > widest {
			widest = len(layer)
		}
	}
	span := rowWidth(widest, params)

	positions := make(map[string]ports.Position, len(index))
	for r := 0; r <= maxRank; r++ {
		layer := layers[r]
		sort.Ints(layer)
		left := (span - rowWidth(len(layer), params)) / 2
		y := params.NodeHeight/2 + float64(r)*(params.NodeHeight+params.RankSep)
		for col, i := range layer {
			x := left + params.NodeWidth/2 + float64(col)*(params.NodeWidth+params.NodeSep)
			positions[nodes[i]] = ports.Position{X: x, Y: y}
		}
	}
	return positions, nil
}

func (e *LayeredEngine) params() config.LayoutConfig {
	if e.configs == nil {
		return config.DefaultDomainConfig().Layout
	}
	return e.configs.Current().Layout
}

func rowWidth(n int, p config.LayoutConfig) float64 {
	if n == 0 {
		return 0
	}
	return float64(n)*p.NodeWidth + float64(n-1)*p.NodeSep
}

// acyclic drops the edges a depth-first walk in node order finds pointing
// back onto the current path, self-loops included.
func acyclic(adj [][]int) [][]int {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, len(adj))
	out := make([][]int, len(adj))

	var visit func(int)
	visit = func(u int) {
		state[u] = onPath
		for _, v := range adj[u] {
			switch state[v] {
			case onPath:
				continue
			case unvisited:
				out[u] = append(out[u], v)
				visit(v)
			default:
				out[u] = append(out[u], v)
			}
		}
		state[u] = done
	}
	for u := range adj {
		if state[u] == unvisited {
			visit(u)
		}
	}
	return out
}

// longestPathRanks assigns each node one more than its deepest
// predecessor. adj must be acyclic.
func longestPathRanks(adj [][]int) []int {
	indegree := make([]int, len(adj))
	for _, targets := range adj {
		for _, v := range targets {
			indegree[v]++
		}
	}

	queue := make([]int, 0, len(adj))
	for u := range adj {
		if indegree[u] == 0 {
			queue = append(queue, u)
		}
	}

	ranks := make([]int, len(adj))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if ranks[u]+1 > ranks[v] {
				ranks[v] = ranks[u] + 1
			}
			indegree[v]--
			if indegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return ranks
}
