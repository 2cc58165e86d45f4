package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/defistate/equilibrium-router-go/protocols/tokenregistry"
	uniswapv2 "github.com/defistate/equilibrium-router-go/protocols/uniswapv2"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// TokenConfig describes one token of the network.
type TokenConfig struct {
	ID       uint64 `yaml:"id"`
	Address  string `yaml:"address"`
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// PoolConfig describes one constant-product pool snapshot.
type PoolConfig struct {
	ID       uint64  `yaml:"id"`
	Token0   uint64  `yaml:"token0"`
	Token1   uint64  `yaml:"token1"`
	Reserve0 float64 `yaml:"reserve0"`
	Reserve1 float64 `yaml:"reserve1"`
}

// TradeConfig describes one trade to run against the router.
type TradeConfig struct {
	Input  string  `yaml:"input"`
	Output string  `yaml:"output"`
	Amount float64 `yaml:"amount"`
}

// QuoterConfig is the full configuration for the quoter binary.
type QuoterConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
	Pools  []PoolConfig  `yaml:"pools"`
	Trades []TradeConfig `yaml:"trades"`
}

// validate checks if the configuration is valid.
func (c *QuoterConfig) validate() error {
	if len(c.Tokens) == 0 {
		return errors.New("config: at least one token is required")
	}
	if len(c.Pools) == 0 {
		return errors.New("config: at least one pool is required")
	}
	for i, trade := range c.Trades {
		if trade.Input == "" || trade.Output == "" {
			return fmt.Errorf("config: trade %d is missing input or output token", i)
		}
	}
	return nil
}

// LoadConfig reads and validates a quoter configuration from a YAML file.
func LoadConfig(path string) (*QuoterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg QuoterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Registry converts the configured tokens into registry records.
func (c *QuoterConfig) Registry() []tokenregistry.Token {
	tokens := make([]tokenregistry.Token, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		tokens = append(tokens, tokenregistry.Token{
			ID:       t.ID,
			Address:  common.HexToAddress(t.Address),
			Name:     t.Name,
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
		})
	}
	return tokens
}

// PoolSet converts the configured pools into pool snapshots.
func (c *QuoterConfig) PoolSet() []uniswapv2.Pool {
	pools := make([]uniswapv2.Pool, 0, len(c.Pools))
	for _, p := range c.Pools {
		pools = append(pools, uniswapv2.Pool{
			ID:       p.ID,
			Token0:   p.Token0,
			Token1:   p.Token1,
			Reserve0: p.Reserve0,
			Reserve1: p.Reserve1,
		})
	}
	return pools
}
