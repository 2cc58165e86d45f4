package router

import "math"

const (
	// tolerance is the convergence threshold on the maximum relative price
	// change across one full sweep.
	tolerance = 1e-12

	// maxSweeps caps the fixed-point iteration. Hitting the cap is not an
	// error; the solve reports Converged=false and the current prices are
	// used as-is.
	maxSweeps = 20_000

	// referenceToken is the gauge fix: the price system is homogeneous of
	// degree zero, so after convergence all prices are rescaled to make
	// this token's price exactly 1.0.
	referenceToken = 0
)

// solveEquilibrium drives the graph to the no-arbitrage equilibrium with the
// price of outputToken held fixed, then extracts the obtainable amount of
// that token.
//
// Every token u other than the output token must satisfy the balance law
//
//	sum_v K(u,v) * (q_u / q_v) = totalReserve_u
//
// which rearranges into the Gauss-Seidel update, applied per sweep in
// ascending token index using the latest available neighbor prices:
//
//	q_u <- totalReserve_u / ( sum_v K(u,v) / q_v )
//
// Once converged (or the sweep cap is hit), prices are renormalized against
// the reference token and the balance law is evaluated at the output token f:
//
//	T'_f = sum_v K(f,v) * (q_f / q_v)
//
// The extracted amount is the old totalReserve_f minus T'_f, and T'_f
// replaces the stored total so the graph is ready for the next trade.
func (g *tokenGraph) solveEquilibrium(outputToken int) (float64, SolveStats) {
	var stats SolveStats

	for sweep := 0; sweep < maxSweeps; sweep++ {
		maxRelativeChange := 0.0

		for token := range g.nodes {
			// The output token's price stays fixed.
			if token == outputToken {
				continue
			}
			node := &g.nodes[token]
			q := node.price

			denom := 0.0
			for _, neighbor := range node.neighbors {
				denom += node.adjacent[neighbor] / g.nodes[neighbor].price
			}
			updatedQ := node.totalReserve / denom

			relativeChange := math.Abs(updatedQ-q) / math.Abs(q)
			if relativeChange > maxRelativeChange {
				maxRelativeChange = relativeChange
			}

			node.price = updatedQ
		}

		stats.Sweeps = sweep + 1
		stats.MaxRelativeChange = maxRelativeChange

		if maxRelativeChange < tolerance {
			stats.Converged = true
			break
		}
	}

	g.normalizePrices()

	output := &g.nodes[outputToken]
	outputReserve := 0.0
	for _, neighbor := range output.neighbors {
		outputReserve += output.adjacent[neighbor] * (output.price / g.nodes[neighbor].price)
	}

	extracted := output.totalReserve - outputReserve
	output.totalReserve = outputReserve

	return extracted, stats
}

// normalizePrices rescales all prices so the reference token's price is 1.0.
// The extracted amount depends only on price ratios, so this is a pure gauge
// choice; it keeps prices bounded across repeated trades.
func (g *tokenGraph) normalizePrices() {
	refPrice := g.nodes[referenceToken].price
	for i := range g.nodes {
		g.nodes[i].price /= refPrice
	}
}
