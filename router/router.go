package router

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/defistate/equilibrium-router-go/bitset"
	"github.com/defistate/equilibrium-router-go/protocols/tokenregistry/indexer"
	uniswapv2 "github.com/defistate/equilibrium-router-go/protocols/uniswapv2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrUnknownToken is returned when a symbol cannot be resolved to a
	// token present in the pool set.
	ErrUnknownToken = errors.New("unknown token")
	// ErrSameToken is returned when the input and output tokens are identical.
	ErrSameToken = errors.New("input and output tokens must differ")
	// ErrInvalidAmount is returned when the input amount is negative or NaN.
	ErrInvalidAmount = errors.New("input amount must be non-negative")
	// ErrInvalidPool is returned at construction when a pool has a
	// non-positive or NaN reserve, or pairs a token with itself.
	ErrInvalidPool = errors.New("invalid pool")
	// ErrDisconnectedGraph is returned at construction when some token is
	// unreachable from the rest of the network. A disconnected graph would
	// make the solver produce NaN prices, so it is rejected up front.
	ErrDisconnectedGraph = errors.New("token graph is not connected")
)

// Config holds the configuration for a Router.
type Config struct {
	// Pools is the immutable pool snapshot the graph is aggregated from.
	Pools []uniswapv2.Pool
	// Tokens resolves token symbols to token IDs. Every token referenced
	// by a pool must be present.
	Tokens indexer.IndexedTokenSystem
	// Logger receives structured solve diagnostics.
	Logger Logger
	// Registry receives the router's prometheus metrics.
	Registry prometheus.Registerer
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if len(c.Pools) == 0 {
		return errors.New("config: Pools cannot be empty")
	}
	if c.Tokens == nil {
		return errors.New("config: Tokens is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.Registry == nil {
		return errors.New("config: Registry is required")
	}
	return nil
}

// Router computes the maximum output obtainable when trading one token for
// another across the whole pool network, by driving the aggregated
// token-liquidity graph to a simultaneous no-arbitrage equilibrium.
//
// The graph is built once at construction and mutated in place by every
// trade: a trade is a state transition, not a fresh computation. Router is
// not safe for concurrent use; wrap it in a System to serialize callers.
type Router struct {
	graph     *tokenGraph
	indexByID map[uint64]int
	idByIndex []uint64
	tokens    indexer.IndexedTokenSystem
	logger    Logger
	metrics   *Metrics
}

// NewRouter builds the aggregated token-liquidity graph from the configured
// pool snapshot. All prices start at 1.0.
//
// Construction is strict where the solver is not: pools with non-positive
// reserves, unknown token IDs, self-pairs, single-token sets and
// disconnected graphs are all rejected here, because past this point the
// solver assumes a well-formed connected graph and will silently emit
// NaN/Inf otherwise.
func NewRouter(cfg *Config) (*Router, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := validatePools(cfg.Pools, cfg.Tokens); err != nil {
		return nil, err
	}

	// A non-empty pool set with no self-pairs always spans at least two
	// distinct tokens, so the n=1 precondition violation cannot get here.
	indexByID, idByIndex := buildTokenIndex(cfg.Pools)

	graph := newTokenGraph(cfg.Pools, indexByID)
	if !connected(graph) {
		return nil, ErrDisconnectedGraph
	}

	r := &Router{
		graph:     graph,
		indexByID: indexByID,
		idByIndex: idByIndex,
		tokens:    cfg.Tokens,
		logger:    cfg.Logger,
		metrics:   NewMetrics(cfg.Registry),
	}

	r.logger.Info("router initialized",
		"tokens", len(idByIndex),
		"pools", len(cfg.Pools),
	)

	return r, nil
}

// Swap sells inputAmount of the input token for the output token and returns
// the amount extracted at the new network-wide equilibrium.
//
// All parameters are validated before any state is touched, so a failed call
// leaves the graph exactly as it was. On success the input token's total
// reserve has been incremented, the output token's total reserve replaced by
// its post-equilibrium value, and every price may have moved; the graph is
// immediately ready for the next trade.
//
// A negative OutputAmount is possible for degenerate trades (e.g. amount
// zero with numerical noise) and is deliberately not clamped.
func (r *Router) Swap(inputSymbol, outputSymbol string, inputAmount float64) (*TradeResult, error) {
	inputIndex, err := r.resolve(inputSymbol)
	if err != nil {
		return nil, err
	}
	outputIndex, err := r.resolve(outputSymbol)
	if err != nil {
		return nil, err
	}
	if inputIndex == outputIndex {
		return nil, fmt.Errorf("%w: %s", ErrSameToken, inputSymbol)
	}
	if inputAmount < 0 || math.IsNaN(inputAmount) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAmount, inputAmount)
	}

	start := time.Now()

	r.graph.nodes[inputIndex].totalReserve += inputAmount
	extracted, stats := r.graph.solveEquilibrium(outputIndex)

	r.metrics.observeTrade(stats, time.Since(start).Seconds())

	if !stats.Converged {
		r.logger.Warn("equilibrium solve hit the sweep cap",
			"input", inputSymbol,
			"output", outputSymbol,
			"max_relative_change", stats.MaxRelativeChange,
		)
	}
	r.logger.Debug("trade applied",
		"input", inputSymbol,
		"output", outputSymbol,
		"amount_in", inputAmount,
		"amount_out", extracted,
		"sweeps", stats.Sweeps,
	)

	return &TradeResult{
		InputToken:   inputSymbol,
		OutputToken:  outputSymbol,
		InputAmount:  inputAmount,
		OutputAmount: extracted,
		Stats:        stats,
	}, nil
}

// View returns a snapshot of the current graph state. The snapshot owns its
// memory; subsequent trades do not mutate it.
func (r *Router) View() *RouterView {
	n := len(r.graph.nodes)

	view := &RouterView{
		Tokens:        make([]string, n),
		TotalReserves: make([]float64, n),
		Prices:        make([]float64, n),
	}

	for i, node := range r.graph.nodes {
		view.TotalReserves[i] = node.totalReserve
		view.Prices[i] = node.price

		if token, ok := r.tokens.GetByID(r.idByIndex[i]); ok {
			view.Tokens[i] = token.Symbol
		}

		for _, neighbor := range node.neighbors {
			// Each undirected edge is reported once, from its lower index.
			if neighbor > i {
				view.Edges = append(view.Edges, EdgeView{
					Token0:    i,
					Token1:    neighbor,
					Liquidity: node.adjacent[neighbor],
				})
			}
		}
	}

	return view
}

// resolve maps a token symbol to its dense graph index.
func (r *Router) resolve(symbol string) (int, error) {
	token, ok := r.tokens.GetBySymbol(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownToken, symbol)
	}
	index, ok := r.indexByID[token.ID]
	if !ok {
		return 0, fmt.Errorf("%w: %q has no pools", ErrUnknownToken, symbol)
	}
	return index, nil
}

// validatePools rejects malformed pool records before aggregation.
func validatePools(pools []uniswapv2.Pool, tokens indexer.IndexedTokenSystem) error {
	for _, pool := range pools {
		if pool.Token0 == pool.Token1 {
			return fmt.Errorf("%w: pool %d pairs token %d with itself", ErrInvalidPool, pool.ID, pool.Token0)
		}
		if !(pool.Reserve0 > 0) || !(pool.Reserve1 > 0) {
			return fmt.Errorf("%w: pool %d has non-positive reserves (%v, %v)", ErrInvalidPool, pool.ID, pool.Reserve0, pool.Reserve1)
		}
		for _, tokenID := range [2]uint64{pool.Token0, pool.Token1} {
			if _, ok := tokens.GetByID(tokenID); !ok {
				return fmt.Errorf("%w: pool %d references unregistered token %d", ErrInvalidPool, pool.ID, tokenID)
			}
		}
	}
	return nil
}

// connected reports whether every token is reachable from token 0.
func connected(g *tokenGraph) bool {
	n := len(g.nodes)
	visited := bitset.NewBitSet(uint64(n))
	visited.Set(0)

	queue := []int{0}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range g.nodes[current].neighbors {
			if !visited.IsSet(uint64(neighbor)) {
				visited.Set(uint64(neighbor))
				queue = append(queue, neighbor)
			}
		}
	}

	return visited.Count() == uint64(n)
}
