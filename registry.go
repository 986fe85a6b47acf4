package confscope

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-confscope/layering"
)

// DefaultModifier is the reserved modifier key holding a type's default
// entry.
const DefaultModifier = "*"

// TypeRegistry holds the entries of one configuration type: by ID, by
// modifier, and the default stored under DefaultModifier.
type TypeRegistry struct {
	typeName string

	mu         sync.RWMutex
	byID       map[string]*Entry
	byModifier map[string]*Entry
}

// NewTypeRegistry returns an empty registry for typeName.
func NewTypeRegistry(typeName string) *TypeRegistry {
	return &TypeRegistry{
		typeName:   typeName,
		byID:       make(map[string]*Entry),
		byModifier: make(map[string]*Entry),
	}
}

// Type returns the configuration type the registry holds.
func (r *TypeRegistry) Type() string {
	return r.typeName
}

// AddByID stores entry under id. A second entry for the same id fails with a
// DuplicateError.
func (r *TypeRegistry) AddByID(id string, entry *Entry) error {
	if id == "" {
		return fmt.Errorf("%w: id for type %q", ErrEmptyIdentifier, r.typeName)
	}
	return r.add(r.byID, layering.LevelID, id, entry)
}

// AddByModifier stores entry under modifier. DefaultModifier targets the
// default slot.
func (r *TypeRegistry) AddByModifier(modifier string, entry *Entry) error {
	if modifier == "" {
		return fmt.Errorf("%w: modifier for type %q", ErrEmptyIdentifier, r.typeName)
	}
	level := layering.LevelModifier
	if modifier == DefaultModifier {
		level = layering.LevelDefault
	}
	return r.add(r.byModifier, level, modifier, entry)
}

// AddDefault stores entry as the type's default.
func (r *TypeRegistry) AddDefault(entry *Entry) error {
	return r.AddByModifier(DefaultModifier, entry)
}

// Add routes entry by the consumer's identity: ID when present, else
// modifier, else default.
func (r *TypeRegistry) Add(identity Consumer, entry *Entry) error {
	switch {
	case identity.ConfigID() != "":
		return r.AddByID(identity.ConfigID(), entry)
	case identity.Modifier() != "":
		return r.AddByModifier(identity.Modifier(), entry)
	default:
		return r.AddDefault(entry)
	}
}

func (r *TypeRegistry) add(slots map[string]*Entry, level layering.Level, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("confscope: nil entry for %s %q of type %q", level, key, r.typeName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if previous, exists := slots[key]; exists {
		return &DuplicateError{
			Type:     r.typeName,
			Level:    level,
			Key:      key,
			Source:   entry.Source(),
			Previous: previous.Source(),
		}
	}
	slots[key] = entry
	return nil
}

// GetByID returns the entry registered for id.
func (r *TypeRegistry) GetByID(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[id]
	return entry, ok
}

// GetByModifier returns the entry registered for modifier.
func (r *TypeRegistry) GetByModifier(modifier string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byModifier[modifier]
	return entry, ok
}

// GetDefault returns the default entry.
func (r *TypeRegistry) GetDefault() (*Entry, bool) {
	return r.GetByModifier(DefaultModifier)
}

// Has reports whether the slot is taken.
func (r *TypeRegistry) Has(level layering.Level, key string) bool {
	switch level {
	case layering.LevelID:
		_, ok := r.GetByID(key)
		return ok
	case layering.LevelModifier:
		_, ok := r.GetByModifier(key)
		return ok
	case layering.LevelDefault:
		_, ok := r.GetDefault()
		return ok
	default:
		return false
	}
}

// Get returns the entry stored in the slot.
func (r *TypeRegistry) Get(level layering.Level, key string) (*Entry, bool) {
	switch level {
	case layering.LevelID:
		return r.GetByID(key)
	case layering.LevelModifier:
		return r.GetByModifier(key)
	case layering.LevelDefault:
		return r.GetDefault()
	default:
		return nil, false
	}
}

// IDs returns the registered IDs, sorted.
func (r *TypeRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.byID, "")
}

// Modifiers returns the registered modifiers without DefaultModifier,
// sorted.
func (r *TypeRegistry) Modifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.byModifier, DefaultModifier)
}

// Len returns the number of occupied slots, default included.
func (r *TypeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID) + len(r.byModifier)
}

func sortedKeys(entries map[string]*Entry, skip string) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		if key != skip {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
