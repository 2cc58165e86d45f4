package tokenregistry

import "github.com/ethereum/go-ethereum/common"

// Token is a safe, structured representation of a token's data for external use.
// The router identifies tokens by Symbol and resolves them to dense indices
// internally; ID and Address exist for callers that track on-chain identity.
type Token struct {
	ID       uint64         `json:"id"`
	Address  common.Address `json:"address"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}
