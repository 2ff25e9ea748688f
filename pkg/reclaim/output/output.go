// Package output provides formatters for displaying reclaim results in
// various formats (pretty, plain, json).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.FormatDuplicates(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/reclaim/pkg/reclaim/cleaner"
	"github.com/jamesainslie/reclaim/pkg/reclaim/dupes"
	"github.com/jamesainslie/reclaim/pkg/reclaim/recovery"
)

// Formatter renders reclaim results for one output format.
type Formatter interface {
	// FormatDuplicates renders a duplicate detection result.
	FormatDuplicates(w *bytes.Buffer, r *dupes.Result) error

	// FormatPlan renders a cleanup plan (preview).
	FormatPlan(w *bytes.Buffer, p *cleaner.Plan) error

	// FormatRecoveries renders the recovery index listing.
	FormatRecoveries(w *bytes.Buffer, entries []recovery.IndexEntry) error

	// FormatManifest renders one full recovery manifest.
	FormatManifest(w *bytes.Buffer, m *recovery.Manifest) error
}

// FormatterFactory creates a new formatter instance.
type FormatterFactory func() Formatter

// Registry holds registered formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory under the given name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance for the given name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
	return factory(), nil
}

// Available returns all registered formatter names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
