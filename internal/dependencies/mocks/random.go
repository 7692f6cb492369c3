package mocks

import (
	"sync"

	"github.com/mcoot/dojo-starter/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// HexResults is a queue of results to return from Hex
	HexResults []string
	hexIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Hex returns the next queued result, or "0x0" if none remaining
func (r *MockRandom) Hex(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hexIndex >= len(r.HexResults) {
		return "0x0"
	}
	result := r.HexResults[r.hexIndex]
	r.hexIndex++
	return result
}

// QueueHex adds values to the Hex result queue
func (r *MockRandom) QueueHex(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HexResults = append(r.HexResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HexResults = nil
	r.hexIndex = 0
}
