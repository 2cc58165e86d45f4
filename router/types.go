package router

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SolveStats reports the quality of a single equilibrium solve. The solver
// never fails outright: if the sweep cap is reached the best-effort prices
// are used and Converged is false, leaving the caller to decide whether the
// result is acceptable.
type SolveStats struct {
	// Sweeps is the number of full Gauss-Seidel passes performed.
	Sweeps int `json:"sweeps"`
	// MaxRelativeChange is the largest relative price movement observed
	// during the final sweep.
	MaxRelativeChange float64 `json:"maxRelativeChange"`
	// Converged is false only if the sweep cap was hit before the
	// tolerance was met.
	Converged bool `json:"converged"`
}

// TradeResult is the outcome of a single trade applied to the router.
type TradeResult struct {
	InputToken   string     `json:"inputToken"`
	OutputToken  string     `json:"outputToken"`
	InputAmount  float64    `json:"inputAmount"`
	OutputAmount float64    `json:"outputAmount"`
	Stats        SolveStats `json:"stats"`
}

// EdgeView is one aggregated edge of the token-liquidity graph. Token
// positions refer to dense graph indices, with Token0 < Token1.
type EdgeView struct {
	Token0    int     `json:"token0"`
	Token1    int     `json:"token1"`
	Liquidity float64 `json:"liquidity"`
}

// RouterView provides a complete snapshot of the router's graph state,
// suitable for serialization or external analysis. Slices are indexed by
// dense graph index; Tokens maps each index back to its symbol.
type RouterView struct {
	Tokens        []string   `json:"tokens"`
	TotalReserves []float64  `json:"totalReserves"`
	Prices        []float64  `json:"prices"`
	Edges         []EdgeView `json:"edges"`
}
