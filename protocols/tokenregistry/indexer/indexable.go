package indexer

import (
	tokenregistry "github.com/defistate/equilibrium-router-go/protocols/tokenregistry"
	"github.com/ethereum/go-ethereum/common"
)

// Indexer is a concrete implementation of the TokenIndexer contract.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed tokenregistry system from a raw slice of tokens.
func (i *Indexer) Index(tokens []tokenregistry.Token) IndexedTokenSystem {
	return NewIndexableTokenSystem(tokens)
}

// IndexableTokenSystem provides fast, indexed access to tokenregistry data.
type IndexableTokenSystem struct {
	byID      map[uint64]tokenregistry.Token
	byAddress map[common.Address]tokenregistry.Token
	bySymbol  map[string]tokenregistry.Token
	all       []tokenregistry.Token
}

// NewIndexableTokenSystem creates a new indexed tokenregistry system from a raw slice.
func NewIndexableTokenSystem(tokens []tokenregistry.Token) *IndexableTokenSystem {
	byID := make(map[uint64]tokenregistry.Token, len(tokens))
	byAddress := make(map[common.Address]tokenregistry.Token, len(tokens))
	bySymbol := make(map[string]tokenregistry.Token, len(tokens))

	for _, t := range tokens {
		byID[t.ID] = t
		byAddress[t.Address] = t
		bySymbol[t.Symbol] = t
	}

	return &IndexableTokenSystem{
		byID:      byID,
		byAddress: byAddress,
		bySymbol:  bySymbol,
		all:       tokens,
	}
}

// GetByID retrieves a token by its unique ID.
func (its *IndexableTokenSystem) GetByID(id uint64) (tokenregistry.Token, bool) {
	t, ok := its.byID[id]
	return t, ok
}

// GetByAddress retrieves a token by its contract address.
func (its *IndexableTokenSystem) GetByAddress(address common.Address) (tokenregistry.Token, bool) {
	t, ok := its.byAddress[address]
	return t, ok
}

// GetBySymbol retrieves a token by its symbol. Symbols are matched exactly;
// the registry does not attempt case folding.
func (its *IndexableTokenSystem) GetBySymbol(symbol string) (tokenregistry.Token, bool) {
	t, ok := its.bySymbol[symbol]
	return t, ok
}

// All returns a defensive copy of the slice of all tokens in the system.
func (its *IndexableTokenSystem) All() []tokenregistry.Token {
	allCopy := make([]tokenregistry.Token, len(its.all))
	copy(allCopy, its.all)
	return allCopy
}
