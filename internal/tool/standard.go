package tool

import "os/exec"

// standardTools is the fixed set of well-known executables a standard
// registry probes for. Paths are resolved against PATH at probe time.
var standardTools = []Tool{
	{Name: "git", Path: "git", Description: "version control operations"},
	{Name: "go", Path: "go", Description: "Go toolchain (build, test, vet)"},
	{Name: "gofmt", Path: "gofmt", Description: "Go source formatting"},
	{Name: "make", Path: "make", Description: "build automation"},
	{Name: "rg", Path: "rg", DefaultArgs: []string{"--color=never"}, Description: "fast code search"},
}

// ProbeStandardTools resolves the well-known tool set against PATH.
// Tools that do not resolve are reported as missing; absence is not an
// error until invocation time.
func ProbeStandardTools() (found []Tool, missing []string) {
	for _, t := range standardTools {
		path, err := exec.LookPath(t.Path)
		if err != nil {
			missing = append(missing, t.Name)
			continue
		}
		t.Path = path
		found = append(found, t)
	}
	return found, missing
}

// NewStandardRegistry builds a registry preloaded with whichever
// standard tools resolve on this host.
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	found, _ := ProbeStandardTools()
	for _, t := range found {
		// Names are unique within the probe set, so registration
		// cannot collide.
		_ = r.Register(t)
	}
	return r
}
