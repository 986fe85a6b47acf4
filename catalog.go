package confscope

import (
	"sort"
	"sync"
)

// Catalog maps configuration type names to their registries. It is safe for
// concurrent use; registries are created once and never replaced.
type Catalog struct {
	registries sync.Map
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Registry returns the registry for typeName, creating it when absent. When
// callers race, all of them receive the same registry.
func (c *Catalog) Registry(typeName string) *TypeRegistry {
	if existing, ok := c.registries.Load(typeName); ok {
		return existing.(*TypeRegistry)
	}
	actual, _ := c.registries.LoadOrStore(typeName, NewTypeRegistry(typeName))
	return actual.(*TypeRegistry)
}

// Lookup returns the registry for typeName without creating one.
func (c *Catalog) Lookup(typeName string) (*TypeRegistry, bool) {
	value, ok := c.registries.Load(typeName)
	if !ok {
		return nil, false
	}
	return value.(*TypeRegistry), true
}

// Types returns the registered type names, sorted.
func (c *Catalog) Types() []string {
	var names []string
	c.registries.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}
