package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeStandardToolsCoversFixedSet(t *testing.T) {
	found, missing := ProbeStandardTools()

	names := make(map[string]bool)
	for _, tl := range found {
		names[tl.Name] = true
		assert.NotEmpty(t, tl.Path, "probed tool must carry a resolved path")
	}
	for _, name := range missing {
		assert.False(t, names[name], "tool %s reported both found and missing", name)
		names[name] = true
	}

	for _, tl := range standardTools {
		assert.True(t, names[tl.Name], "tool %s missing from probe output", tl.Name)
	}
}

func TestNewStandardRegistryRegistersFoundTools(t *testing.T) {
	r := NewStandardRegistry()
	found, missing := ProbeStandardTools()

	for _, tl := range found {
		assert.True(t, r.IsRegistered(tl.Name))
	}
	for _, name := range missing {
		assert.False(t, r.IsRegistered(name))
	}
}
