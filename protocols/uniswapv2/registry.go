package uniswapv2

// Pool is a snapshot of a single constant-product (x*y=k) liquidity pool.
// It is a plain data record: the equilibrium router consumes it once at
// graph construction time and never mutates it afterwards.
//
// Token0 and Token1 are token registry IDs. The pair is unordered for
// aggregation purposes, but each reserve stays in fixed correspondence
// with its side of the pool.
type Pool struct {
	ID       uint64  `json:"id"`
	Token0   uint64  `json:"token0"`
	Token1   uint64  `json:"token1"`
	Reserve0 float64 `json:"reserve0"`
	Reserve1 float64 `json:"reserve1"`
}
