package router

import (
	"math"
	"sort"

	uniswapv2 "github.com/defistate/equilibrium-router-go/protocols/uniswapv2"
)

// tokenNode is one token in the aggregated token-liquidity graph.
type tokenNode struct {
	// totalReserve is the sum of this token's reserve across every pool
	// containing it. Updated in place by trade application and by
	// equilibrium extraction.
	totalReserve float64

	// price is the equilibrium price variable q. It persists across
	// trades: the network is assumed to stay near equilibrium between
	// calls, so the previous fixed point seeds the next solve.
	price float64

	// adjacent maps a neighboring token's dense index to the aggregated
	// geometric liquidity K(u,v). An absent entry means no direct edge.
	adjacent map[int]float64

	// neighbors holds the keys of adjacent in ascending order, so sweeps
	// accumulate denominators in a deterministic order.
	neighbors []int
}

// tokenGraph is the undirected, weighted graph over tokens that the
// equilibrium solver operates on. It is built once from a pool snapshot and
// then mutated in place by every trade; it is not safe for concurrent use.
type tokenGraph struct {
	nodes []tokenNode
}

// buildTokenIndex assigns a dense index in [0, n) to every distinct token ID
// appearing in the pool set, in first-seen order.
func buildTokenIndex(pools []uniswapv2.Pool) (map[uint64]int, []uint64) {
	indexByID := make(map[uint64]int)
	idByIndex := make([]uint64, 0)

	for _, pool := range pools {
		for _, tokenID := range [2]uint64{pool.Token0, pool.Token1} {
			if _, seen := indexByID[tokenID]; !seen {
				indexByID[tokenID] = len(idByIndex)
				idByIndex = append(idByIndex, tokenID)
			}
		}
	}

	return indexByID, idByIndex
}

// newTokenGraph aggregates a pool snapshot into the token-liquidity graph:
//   - totalReserve sums each token's reserve over all pools, on either side;
//   - each unordered pair (u,v) gets a single edge whose weight is
//     K(u,v) = sum of sqrt(reserve0*reserve1) over all pools linking them,
//     written symmetrically into both adjacency maps;
//   - all prices start at 1.0.
func newTokenGraph(pools []uniswapv2.Pool, indexByID map[uint64]int) *tokenGraph {
	nodes := make([]tokenNode, len(indexByID))
	for i := range nodes {
		nodes[i].price = 1.0
		nodes[i].adjacent = make(map[int]float64)
	}

	for _, pool := range pools {
		index0 := indexByID[pool.Token0]
		index1 := indexByID[pool.Token1]
		nodes[index0].totalReserve += pool.Reserve0
		nodes[index1].totalReserve += pool.Reserve1

		liquidity := math.Sqrt(pool.Reserve0 * pool.Reserve1)
		nodes[index0].adjacent[index1] += liquidity
		nodes[index1].adjacent[index0] += liquidity
	}

	for i := range nodes {
		neighbors := make([]int, 0, len(nodes[i].adjacent))
		for neighbor := range nodes[i].adjacent {
			neighbors = append(neighbors, neighbor)
		}
		sort.Ints(neighbors)
		nodes[i].neighbors = neighbors
	}

	return &tokenGraph{nodes: nodes}
}
