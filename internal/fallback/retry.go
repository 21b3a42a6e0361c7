package fallback

import (
	"sync"
	"time"

	"github.com/harrison/foreman/internal/tool"
)

// RetryHandler retries a failed invocation a bounded number of times
// with exponential backoff. The attempt counter is scoped to one
// instance, so a fresh instance resets the budget.
type RetryHandler struct {
	maxAttempts int
	backoff     time.Duration

	mu       sync.Mutex
	attempts int

	sleep func(time.Duration)
}

// NewRetryHandler creates a retry handler allowing maxAttempts
// consultations with the given backoff base. A budget below one is
// raised to one.
func NewRetryHandler(maxAttempts int, backoff time.Duration) *RetryHandler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryHandler{
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       time.Sleep,
	}
}

// Handle returns Retry with the presented invocation after sleeping
// backoff * 2^(attempt-1) while the budget lasts. The consultation that
// exhausts the budget returns Fail with the presented error.
func (h *RetryHandler) Handle(err error, inv tool.Invocation) Result {
	h.mu.Lock()
	h.attempts++
	attempt := h.attempts
	h.mu.Unlock()

	if attempt >= h.maxAttempts {
		return Fail(err)
	}
	if h.backoff > 0 {
		h.sleep(h.backoff << (attempt - 1))
	}
	return Retry(inv)
}

// Attempts returns the number of consultations so far.
func (h *RetryHandler) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}
