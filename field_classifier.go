package confscope

import (
	"github.com/goliatone/go-confscope/layering"
)

const (
	// DefaultIDField is the field FieldClassifier reads IDs from.
	DefaultIDField = "id"
	// DefaultModifierField is the field FieldClassifier reads modifiers from.
	DefaultModifierField = "modifier"
)

// FieldClassifierOption configures a FieldClassifier.
type FieldClassifierOption func(*FieldClassifier)

// WithFields changes the ID and modifier field names for every type.
func WithFields(idField, modifierField string) FieldClassifierOption {
	return func(c *FieldClassifier) {
		if idField != "" {
			c.idField = idField
		}
		if modifierField != "" {
			c.modifierField = modifierField
		}
	}
}

// WithTypeFields overrides the field names for one type.
func WithTypeFields(typeName, idField, modifierField string) FieldClassifierOption {
	return func(c *FieldClassifier) {
		c.overrides[typeName] = fieldNames{id: idField, modifier: modifierField}
	}
}

// WithTypes restricts the classifier to the named types. Fragments of other
// types are left unclassified.
func WithTypes(types ...string) FieldClassifierOption {
	return func(c *FieldClassifier) {
		for _, name := range types {
			if name != "" {
				c.types[name] = struct{}{}
			}
		}
	}
}

type fieldNames struct {
	id       string
	modifier string
}

// FieldClassifier classifies fragments by reading two fields below the root
// key, for example service.serviceId and service.modifier. Each field may
// hold a string or a list of strings.
type FieldClassifier struct {
	idField       string
	modifierField string
	overrides     map[string]fieldNames
	types         map[string]struct{}
}

// NewFieldClassifier returns a FieldClassifier reading "id" and "modifier"
// unless configured otherwise.
func NewFieldClassifier(opts ...FieldClassifierOption) *FieldClassifier {
	c := &FieldClassifier{
		idField:       DefaultIDField,
		modifierField: DefaultModifierField,
		overrides:     make(map[string]fieldNames),
		types:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Fields returns the ID and modifier field names used for typeName.
func (c *FieldClassifier) Fields(typeName string) (idField, modifierField string) {
	idField, modifierField = c.idField, c.modifierField
	if override, ok := c.overrides[typeName]; ok {
		if override.id != "" {
			idField = override.id
		}
		if override.modifier != "" {
			modifierField = override.modifier
		}
	}
	return idField, modifierField
}

// Classify implements Classifier.
func (c *FieldClassifier) Classify(typeName string, fragment *layering.Tree) (Classification, error) {
	if len(c.types) > 0 {
		if _, ok := c.types[typeName]; !ok {
			return nil, nil
		}
	}
	idField, modifierField := c.Fields(typeName)
	idValue, _ := fragment.Lookup(typeName + "." + idField)
	modifierValue, _ := fragment.Lookup(typeName + "." + modifierField)
	return classificationFromValues(idValue, modifierValue, FieldMaterializer{
		Type:          typeName,
		IDField:       idField,
		ModifierField: modifierField,
	})
}
