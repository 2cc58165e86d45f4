package uniswapv2

import (
	"errors"
	"fmt"
	"math"

	uniswapv2 "github.com/defistate/equilibrium-router-go/protocols/uniswapv2"
)

var (
	// ErrInvalidAmount is returned when an input amount is negative or NaN.
	ErrInvalidAmount = errors.New("amount must be non-negative")
	// ErrTokenMismatch is returned when the specified input/output tokens do not match the pool's tokens.
	ErrTokenMismatch = errors.New("token mismatch")
	// ErrEmptyPool is returned when a pool has a non-positive reserve on either side.
	ErrEmptyPool = errors.New("pool has non-positive reserves")
)

// GetAmountOut calculates the output amount for a swap against a single pool
// using the fee-less constant-product closed form:
//
//	amountOut = amountIn * reserveOut / (reserveIn + amountIn)
func GetAmountOut(
	amountIn float64,
	tokenIn uint64,
	tokenOut uint64,
	pool uniswapv2.Pool,
) (float64, error) {
	if amountIn < 0 || math.IsNaN(amountIn) {
		return 0, ErrInvalidAmount
	}

	reserveIn, reserveOut, err := GetReserves(tokenIn, tokenOut, pool)
	if err != nil {
		return 0, err
	}
	if reserveIn <= 0 || reserveOut <= 0 {
		return 0, fmt.Errorf("%w: pool %d", ErrEmptyPool, pool.ID)
	}

	return (amountIn * reserveOut) / (reserveIn + amountIn), nil
}

// GetSpotPrice returns the instantaneous price of the output token in terms
// of the input token, i.e. reserveIn / reserveOut. Given mostly for
// informational purposes; marginal trades execute at this rate.
func GetSpotPrice(
	tokenIn uint64,
	tokenOut uint64,
	pool uniswapv2.Pool,
) (float64, error) {
	reserveIn, reserveOut, err := GetReserves(tokenIn, tokenOut, pool)
	if err != nil {
		return 0, err
	}
	if reserveIn <= 0 || reserveOut <= 0 {
		return 0, fmt.Errorf("%w: pool %d", ErrEmptyPool, pool.ID)
	}

	return reserveIn / reserveOut, nil
}

// GetReserves returns the reserves for the given token pair orientation.
// For V2, this is a direct lookup.
func GetReserves(tokenInID, tokenOutID uint64, pool uniswapv2.Pool) (reserveIn, reserveOut float64, err error) {
	if tokenInID == pool.Token0 && tokenOutID == pool.Token1 {
		return pool.Reserve0, pool.Reserve1, nil
	} else if tokenInID == pool.Token1 && tokenOutID == pool.Token0 {
		return pool.Reserve1, pool.Reserve0, nil
	}
	return 0, 0, fmt.Errorf("%w: pool %d does not contain the pair %d -> %d", ErrTokenMismatch, pool.ID, tokenInID, tokenOutID)
}
