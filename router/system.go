package router

import (
	"sync"
	"sync/atomic"
)

// System provides a concurrency-safe layer over a Router. Trades are
// serialized with a mutex, since partially converged solver state is not a
// valid observable snapshot, while reads go through an atomic.Pointer to a
// cached RouterView for lock-free access.
type System struct {
	mu         sync.Mutex
	router     *Router
	cachedView atomic.Pointer[RouterView]
}

// NewSystem creates a concurrency-safe system around an existing Router.
// The Router must not be used directly once wrapped.
func NewSystem(router *Router) *System {
	s := &System{router: router}
	s.cachedView.Store(router.View())
	return s
}

// Swap applies a single trade. Concurrent callers are serialized; each trade
// runs to completion, and the cached view is refreshed before the lock is
// released.
func (s *System) Swap(inputSymbol, outputSymbol string, inputAmount float64) (*TradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.router.Swap(inputSymbol, outputSymbol, inputAmount)
	if err != nil {
		return nil, err
	}

	s.cachedView.Store(s.router.View())
	return result, nil
}

// View returns the snapshot taken after the most recent trade. It never
// blocks behind an in-flight trade.
func (s *System) View() *RouterView {
	return s.cachedView.Load()
}
