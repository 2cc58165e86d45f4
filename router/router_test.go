package router

import (
	"io"
	"log/slog"
	"testing"

	"github.com/defistate/equilibrium-router-go/protocols/tokenregistry"
	"github.com/defistate/equilibrium-router-go/protocols/tokenregistry/indexer"
	uniswapv2 "github.com/defistate/equilibrium-router-go/protocols/uniswapv2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenSystem builds a registry for the symbols used across the router tests.
func testTokenSystem() indexer.IndexedTokenSystem {
	return indexer.NewIndexableTokenSystem([]tokenregistry.Token{
		{ID: 1, Address: common.HexToAddress("0x01"), Symbol: "A", Decimals: 18},
		{ID: 2, Address: common.HexToAddress("0x02"), Symbol: "B", Decimals: 18},
		{ID: 3, Address: common.HexToAddress("0x03"), Symbol: "ETH", Decimals: 18},
		{ID: 4, Address: common.HexToAddress("0x04"), Symbol: "USDC", Decimals: 6},
		{ID: 5, Address: common.HexToAddress("0x05"), Symbol: "DAI", Decimals: 18},
		{ID: 6, Address: common.HexToAddress("0x06"), Symbol: "USDT", Decimals: 6},
	})
}

func testLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter builds a router over the given pools with a fresh metrics registry.
func newTestRouter(t *testing.T, pools []uniswapv2.Pool) *Router {
	t.Helper()

	r, err := NewRouter(&Config{
		Pools:    pools,
		Tokens:   testTokenSystem(),
		Logger:   testLogger(),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return r
}

// fourTokenNetwork is a multi-pool network over ETH/USDC/DAI/USDT with
// deliberately inconsistent pool prices, so the first solve has real
// arbitrage to resolve.
func fourTokenNetwork() []uniswapv2.Pool {
	return []uniswapv2.Pool{
		{ID: 1, Token0: 3, Token1: 4, Reserve0: 2_000, Reserve1: 2_000_000},
		{ID: 2, Token0: 3, Token1: 4, Reserve0: 1_000, Reserve1: 1_000_000},
		{ID: 3, Token0: 3, Token1: 5, Reserve0: 1_000, Reserve1: 900_000},
		{ID: 4, Token0: 3, Token1: 5, Reserve0: 3_000, Reserve1: 2_800_000},
		{ID: 5, Token0: 3, Token1: 5, Reserve0: 3_000, Reserve1: 3_100_000},
		{ID: 6, Token0: 5, Token1: 4, Reserve0: 1_000_000, Reserve1: 1_000_000},
		{ID: 7, Token0: 5, Token1: 4, Reserve0: 2_000_000, Reserve1: 2_000_000},
		{ID: 8, Token0: 5, Token1: 6, Reserve0: 1_000_000, Reserve1: 900_000},
		{ID: 9, Token0: 5, Token1: 6, Reserve0: 900_000, Reserve1: 1_000_000},
		{ID: 10, Token0: 3, Token1: 6, Reserve0: 2_000, Reserve1: 2_000_000},
		{ID: 11, Token0: 3, Token1: 6, Reserve0: 10_000, Reserve1: 10_000_000},
	}
}

func TestNewRouter_ConfigValidation(t *testing.T) {
	pools := []uniswapv2.Pool{{ID: 1, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: 40}}

	testCases := []struct {
		name   string
		cfg    *Config
		errMsg string
	}{
		{
			name:   "Missing Pools",
			cfg:    &Config{Tokens: testTokenSystem(), Logger: testLogger(), Registry: prometheus.NewRegistry()},
			errMsg: "config: Pools cannot be empty",
		},
		{
			name:   "Missing Tokens",
			cfg:    &Config{Pools: pools, Logger: testLogger(), Registry: prometheus.NewRegistry()},
			errMsg: "config: Tokens is required",
		},
		{
			name:   "Missing Logger",
			cfg:    &Config{Pools: pools, Tokens: testTokenSystem(), Registry: prometheus.NewRegistry()},
			errMsg: "config: Logger is required",
		},
		{
			name:   "Missing Registry",
			cfg:    &Config{Pools: pools, Tokens: testTokenSystem(), Logger: testLogger()},
			errMsg: "config: Registry is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRouter(tc.cfg)
			require.Error(t, err)
			assert.EqualError(t, err, tc.errMsg)
		})
	}
}

func TestNewRouter_PoolValidation(t *testing.T) {
	testCases := []struct {
		name        string
		pools       []uniswapv2.Pool
		expectedErr error
	}{
		{
			name:        "Zero Reserve",
			pools:       []uniswapv2.Pool{{ID: 1, Token0: 1, Token1: 2, Reserve0: 0, Reserve1: 40}},
			expectedErr: ErrInvalidPool,
		},
		{
			name:        "Negative Reserve",
			pools:       []uniswapv2.Pool{{ID: 1, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: -40}},
			expectedErr: ErrInvalidPool,
		},
		{
			name:        "Self Pair",
			pools:       []uniswapv2.Pool{{ID: 1, Token0: 1, Token1: 1, Reserve0: 10, Reserve1: 40}},
			expectedErr: ErrInvalidPool,
		},
		{
			name:        "Unregistered Token",
			pools:       []uniswapv2.Pool{{ID: 1, Token0: 1, Token1: 99, Reserve0: 10, Reserve1: 40}},
			expectedErr: ErrInvalidPool,
		},
		{
			name: "Disconnected Graph",
			pools: []uniswapv2.Pool{
				{ID: 1, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: 40},
				{ID: 2, Token0: 3, Token1: 4, Reserve0: 100, Reserve1: 100},
			},
			expectedErr: ErrDisconnectedGraph,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRouter(&Config{
				Pools:    tc.pools,
				Tokens:   testTokenSystem(),
				Logger:   testLogger(),
				Registry: prometheus.NewRegistry(),
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestSwap_ParameterValidation(t *testing.T) {
	pools := []uniswapv2.Pool{{ID: 1, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: 40}}

	testCases := []struct {
		name        string
		input       string
		output      string
		amount      float64
		expectedErr error
	}{
		{name: "Unknown Input Symbol", input: "XYZ", output: "B", amount: 1, expectedErr: ErrUnknownToken},
		{name: "Unknown Output Symbol", input: "A", output: "XYZ", amount: 1, expectedErr: ErrUnknownToken},
		{name: "Registered Token Without Pools", input: "A", output: "ETH", amount: 1, expectedErr: ErrUnknownToken},
		{name: "Same Token", input: "A", output: "A", amount: 1, expectedErr: ErrSameToken},
		{name: "Negative Amount", input: "A", output: "B", amount: -1, expectedErr: ErrInvalidAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, pools)
			before := r.View()

			_, err := r.Swap(tc.input, tc.output, tc.amount)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)

			// Validation happens before any mutation: a failed swap must
			// leave the graph untouched.
			assert.Equal(t, before, r.View())
		})
	}
}

func TestSwap_SinglePoolMatchesClosedForm(t *testing.T) {
	// With a single pool the equilibrium must reduce exactly to the
	// constant-product closed form x*40/(10+x).
	amounts := []float64{0.5, 1, 5, 10, 100}

	for _, amount := range amounts {
		r := newTestRouter(t, []uniswapv2.Pool{
			{ID: 1, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: 40},
		})

		result, err := r.Swap("A", "B", amount)
		require.NoError(t, err)

		expected := amount * 40 / (10 + amount)
		assert.InDelta(t, expected, result.OutputAmount, 1e-9)
		assert.True(t, result.Stats.Converged)
	}
}

func TestSwap_AggregatesDuplicatePools(t *testing.T) {
	// Two identical-ratio pools must behave as one pool with summed
	// reserves: selling 20 A into (20, 80) returns exactly 40 B.
	r := newTestRouter(t, []uniswapv2.Pool{
		{ID: 1, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: 40},
		{ID: 2, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: 40},
	})

	result, err := r.Swap("A", "B", 20)
	require.NoError(t, err)
	assert.InDelta(t, 40, result.OutputAmount, 1e-9)

	view := r.View()
	assert.InDelta(t, 40, view.TotalReserves[0], 1e-9, "input token total should include the sold amount")
	assert.InDelta(t, 40, view.TotalReserves[1], 1e-9, "output token total should reflect the extraction")
}

func TestSwap_ZeroAmountIsIdempotent(t *testing.T) {
	r := newTestRouter(t, fourTokenNetwork())

	// Settle the network once so the zero trade starts from equilibrium.
	_, err := r.Swap("ETH", "USDC", 10)
	require.NoError(t, err)

	before := r.View()
	result, err := r.Swap("ETH", "USDC", 0)
	require.NoError(t, err)

	// Tolerance is generous relative to the multi-million reserve
	// magnitudes: the solver stops at 1e-12 relative price movement, which
	// leaves residuals of a few micro-units in the totals.
	assert.InDelta(t, 0, result.OutputAmount, 1e-3)

	after := r.View()
	for i := range before.TotalReserves {
		assert.InDelta(t, before.TotalReserves[i], after.TotalReserves[i], 1e-3,
			"total reserve of %s should be unchanged by a zero trade", before.Tokens[i])
	}
}

func TestSwap_ConservesUntouchedTokenReserves(t *testing.T) {
	r := newTestRouter(t, fourTokenNetwork())

	before := r.View()
	result, err := r.Swap("ETH", "USDC", 10)
	require.NoError(t, err)
	require.True(t, result.Stats.Converged)
	assert.Greater(t, result.OutputAmount, 0.0)

	after := r.View()
	for i, symbol := range after.Tokens {
		switch symbol {
		case "ETH":
			assert.InDelta(t, before.TotalReserves[i]+10, after.TotalReserves[i], 1e-6)
		case "USDC":
			assert.Less(t, after.TotalReserves[i], before.TotalReserves[i])
		default:
			// The equilibrium reallocates prices, not the conserved totals
			// of tokens that are not directly traded.
			assert.InDelta(t, before.TotalReserves[i], after.TotalReserves[i], 1e-6,
				"total reserve of intermediate token %s must be conserved", symbol)
		}
	}
}

func TestSwap_ConvergesUnderSweepCap(t *testing.T) {
	r := newTestRouter(t, fourTokenNetwork())

	result, err := r.Swap("ETH", "USDC", 10)
	require.NoError(t, err)

	assert.True(t, result.Stats.Converged)
	assert.Less(t, result.Stats.Sweeps, maxSweeps)
	assert.Less(t, result.Stats.MaxRelativeChange, tolerance)
}

func TestSwap_SequentialTradesReuseEquilibrium(t *testing.T) {
	// Mirrors the two-phase scenario the router exists for: the first trade
	// captures the arbitrage between inconsistently priced pools, the
	// second executes against an already fair network.
	r := newTestRouter(t, fourTokenNetwork())

	first, err := r.Swap("ETH", "USDC", 10)
	require.NoError(t, err)
	require.True(t, first.Stats.Converged)

	second, err := r.Swap("USDC", "ETH", 10_000)
	require.NoError(t, err)
	require.True(t, second.Stats.Converged)

	// Warm-started from the previous equilibrium, the second solve should
	// settle far faster than the cap.
	assert.Less(t, second.Stats.Sweeps, 1_000)
	assert.Greater(t, second.OutputAmount, 0.0)
}

func TestSwap_GaugeInvariance(t *testing.T) {
	// The renormalization reference is whichever token ends up at index 0,
	// which follows first-seen pool order. The extracted amount depends
	// only on price ratios, so reordering the pool set must not change it.
	poolsOrderA := []uniswapv2.Pool{
		{ID: 1, Token0: 1, Token1: 2, Reserve0: 100, Reserve1: 200},
		{ID: 2, Token0: 2, Token1: 3, Reserve0: 200, Reserve1: 100},
		{ID: 3, Token0: 1, Token1: 3, Reserve0: 100, Reserve1: 100},
	}
	poolsOrderB := []uniswapv2.Pool{
		{ID: 2, Token0: 2, Token1: 3, Reserve0: 200, Reserve1: 100},
		{ID: 3, Token0: 1, Token1: 3, Reserve0: 100, Reserve1: 100},
		{ID: 1, Token0: 1, Token1: 2, Reserve0: 100, Reserve1: 200},
	}

	routerA := newTestRouter(t, poolsOrderA)
	routerB := newTestRouter(t, poolsOrderB)

	resultA, err := routerA.Swap("A", "B", 25)
	require.NoError(t, err)
	resultB, err := routerB.Swap("A", "B", 25)
	require.NoError(t, err)

	assert.InDelta(t, resultA.OutputAmount, resultB.OutputAmount, 1e-9)
}

func TestView_Snapshot(t *testing.T) {
	r := newTestRouter(t, []uniswapv2.Pool{
		{ID: 1, Token0: 1, Token1: 2, Reserve0: 10, Reserve1: 40},
	})

	view := r.View()
	require.Equal(t, []string{"A", "B"}, view.Tokens)
	assert.Equal(t, []float64{10, 40}, view.TotalReserves)
	assert.Equal(t, []float64{1, 1}, view.Prices)
	require.Len(t, view.Edges, 1)
	assert.Equal(t, 0, view.Edges[0].Token0)
	assert.Equal(t, 1, view.Edges[0].Token1)
	assert.InDelta(t, 20, view.Edges[0].Liquidity, 1e-12) // sqrt(10*40)

	// The snapshot owns its memory.
	view.TotalReserves[0] = -1
	assert.Equal(t, 10.0, r.View().TotalReserves[0])
}
