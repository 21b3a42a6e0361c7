package fallback

import (
	"github.com/harrison/foreman/internal/tool"
)

// ChainHandler escalates through an ordered handler list. The first
// non-Fail outcome short-circuits the chain; when every handler fails,
// the last failure is surfaced rather than swallowed.
type ChainHandler struct {
	handlers []Handler
}

// NewChainHandler creates a chain over the given handlers, consulted in
// order.
func NewChainHandler(handlers ...Handler) *ChainHandler {
	return &ChainHandler{handlers: handlers}
}

// Handle consults each handler in order with the presented error. An
// empty chain fails with the presented error.
func (h *ChainHandler) Handle(err error, inv tool.Invocation) Result {
	last := Fail(err)
	for _, handler := range h.handlers {
		res := handler.Handle(err, inv)
		if res.Kind != KindFail {
			return res
		}
		last = res
	}
	return last
}
