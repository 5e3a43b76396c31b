package shell

import (
	"os"
	"sort"
	"sync"
)

// Registry tracks temporary files which must not outlive the process.
type Registry struct {
	mu    sync.Mutex
	files map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{files: make(map[string]struct{})}
}

// Register adds path to the registry.
func (r *Registry) Register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = struct{}{}
}

// Unregister forgets path without touching the file.
func (r *Registry) Unregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, path)
}

// Files returns the registered paths in sorted order.
func (r *Registry) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.files))
	for p := range r.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Cleanup removes every registered file, best effort, and empties the
// registry. It returns the number of files removed.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for p := range r.files {
		if err := os.Remove(p); err == nil {
			removed++
		}
		delete(r.files, p)
	}
	return removed
}
