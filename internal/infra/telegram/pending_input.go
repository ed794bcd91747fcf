package telegram

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// customTimePromptTTL bounds how long a "send me your times" prompt stays open.
const customTimePromptTTL = 10 * time.Minute

// pendingInputs remembers which users were asked to type custom reminder times.
type pendingInputs struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	waiting map[int64]time.Time // user ID -> prompt expiry
}

func newPendingInputs(clk clock.Clock, ttl time.Duration) *pendingInputs {
	return &pendingInputs{
		clock:   clk,
		ttl:     ttl,
		waiting: make(map[int64]time.Time),
	}
}

// Start opens (or renews) the prompt for userID.
func (p *pendingInputs) Start(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiting[userID] = p.clock.Now().Add(p.ttl)
}

// Active reports whether userID has an open, unexpired prompt. Expired prompts are dropped.
func (p *pendingInputs) Active(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	expiry, ok := p.waiting[userID]
	if !ok {
		return false
	}
	if p.clock.Now().After(expiry) {
		delete(p.waiting, userID)
		return false
	}
	return true
}

// Clear closes the prompt for userID.
func (p *pendingInputs) Clear(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.waiting, userID)
}
