package fallback

import (
	"github.com/harrison/foreman/internal/tool"
)

// SkipHandler substitutes a preconfigured outcome for any failure,
// regardless of the presented error.
type SkipHandler struct {
	substitute tool.Result
}

// NewSkipHandler creates a skip handler with the fixed substitute
// result.
func NewSkipHandler(substitute tool.Result) *SkipHandler {
	return &SkipHandler{substitute: substitute}
}

// Handle always returns Skip with a copy of the configured substitute.
func (h *SkipHandler) Handle(err error, inv tool.Invocation) Result {
	res := h.substitute
	return Skip(&res)
}
