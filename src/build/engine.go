package build

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kodecks/kodeship/src/pipeline"
)

// Toolchain turns a build request into the compiler invocation for one
// target. Native cargo and the containerized cross toolchain both implement it.
type Toolchain interface {
	Name() string
	Command(req Request) pipeline.Command
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Toolchain{}
)

// Register adds a toolchain constructor to the global registry.
// Called from init() in the toolchains package.
func Register(name string, constructor func() Toolchain) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("build: duplicate toolchain registration: %s", name))
	}
	registry[name] = constructor
}

// Get returns a new instance of the named toolchain.
func Get(name string) (Toolchain, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("build: unknown toolchain: %s", name)
	}
	return ctor(), nil
}

// All returns sorted names of all registered toolchains.
func All() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
