package readers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/TFMV/tabdiff/pkg/core"
)

// EngineArrow is the name of the built-in pure Go engine.
const EngineArrow = "arrow"

// Factory opens sources with a named engine.
type Factory struct {
	mu      sync.RWMutex
	engines map[string]core.Opener
}

// NewFactory creates a new source factory.
func NewFactory() *Factory {
	return &Factory{
		engines: make(map[string]core.Opener),
	}
}

// Register registers an opener for an engine name.
func (f *Factory) Register(engine string, opener core.Opener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engines[engine] = opener
}

// Has reports whether an engine is registered.
func (f *Factory) Has(engine string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.engines[engine]
	return ok
}

// Engines returns the registered engine names, sorted.
func (f *Factory) Engines() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.engines))
	for name := range f.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens a source with the given engine.
func (f *Factory) Open(engine string, config core.SourceConfig) (core.Source, error) {
	f.mu.RLock()
	opener, ok := f.engines[engine]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownEngine, engine)
	}
	return opener(config)
}

// DefaultFactory is the default source factory with built-in engines.
var DefaultFactory = NewFactory()

// init registers built-in engines.
func init() {
	DefaultFactory.Register(EngineArrow, NewCSVSource)
}
