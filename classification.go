package confscope

import (
	"fmt"
	"slices"

	"github.com/goliatone/go-confscope/layering"
)

// Classification is the outcome of classifying one fragment. It is either
// Scalar or Listed.
type Classification interface {
	classification()
}

// Scalar binds a fragment to at most one ID and at most one modifier. A
// Scalar with neither is the type's default.
type Scalar struct {
	ID       string
	Modifier string
}

func (Scalar) classification() {}

// IsDefault reports whether the fragment claims the default slot.
func (s Scalar) IsDefault() bool {
	return s.ID == "" && s.Modifier == ""
}

// Listed binds a fragment to several IDs and/or modifiers. Each key gets its
// own tree: the materialized single-key tree layered over the fragment.
type Listed struct {
	IDs          []string
	Modifiers    []string
	Materializer Materializer
}

func (Listed) classification() {}

// Materializer produces the tree that pins a listed fragment to one key.
type Materializer interface {
	TreeForID(id string) (*layering.Tree, error)
	TreeForModifier(modifier string) (*layering.Tree, error)
}

// Classifier decides which slots a fragment occupies. A nil Classification
// with a nil error leaves the fragment out of the catalog.
type Classifier interface {
	Classify(typeName string, fragment *layering.Tree) (Classification, error)
}

// SourceClassifier is a Classifier that also receives the path of the
// fragment. The loader calls ClassifySource when a classifier implements it.
type SourceClassifier interface {
	Classifier
	ClassifySource(typeName, path string, fragment *layering.Tree) (Classification, error)
}

func classifyFragment(classifier Classifier, typeName, path string, fragment *layering.Tree) (Classification, error) {
	if sourced, ok := classifier.(SourceClassifier); ok {
		return sourced.ClassifySource(typeName, path, fragment)
	}
	return classifier.Classify(typeName, fragment)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(typeName string, fragment *layering.Tree) (Classification, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(typeName string, fragment *layering.Tree) (Classification, error) {
	if f == nil {
		return nil, nil
	}
	return f(typeName, fragment)
}

// ClassifierChain tries each classifier in order and returns the first
// non-nil classification.
type ClassifierChain []Classifier

// Classify implements Classifier.
func (c ClassifierChain) Classify(typeName string, fragment *layering.Tree) (Classification, error) {
	return c.ClassifySource(typeName, "", fragment)
}

// ClassifySource implements SourceClassifier, passing path to every member
// that accepts it.
func (c ClassifierChain) ClassifySource(typeName, path string, fragment *layering.Tree) (Classification, error) {
	for _, classifier := range c {
		if classifier == nil {
			continue
		}
		result, err := classifyFragment(classifier, typeName, path, fragment)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, nil
}

// FieldMaterializer writes a key back into a fragment under
// <type>.<field>, the inverse of FieldClassifier.
type FieldMaterializer struct {
	Type          string
	IDField       string
	ModifierField string
}

// TreeForID implements Materializer.
func (m FieldMaterializer) TreeForID(id string) (*layering.Tree, error) {
	return m.materialize(m.IDField, id)
}

// TreeForModifier implements Materializer.
func (m FieldMaterializer) TreeForModifier(modifier string) (*layering.Tree, error) {
	return m.materialize(m.ModifierField, modifier)
}

func (m FieldMaterializer) materialize(field, value string) (*layering.Tree, error) {
	if m.Type == "" || field == "" {
		return nil, fmt.Errorf("confscope: materializer needs a type and a field")
	}
	return layering.SetPath(layering.NewTree(), m.Type+"."+field, value), nil
}

// stringsFromValue accepts a string or a list of strings. present is false
// for nil; ok is false for any other shape.
func stringsFromValue(value any) (values []string, list bool, present bool, ok bool) {
	switch v := value.(type) {
	case nil:
		return nil, false, false, true
	case string:
		return []string{v}, false, true, true
	case []string:
		return slices.Clone(v), true, true, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, isString := item.(string)
			if !isString {
				return nil, true, true, false
			}
			out = append(out, s)
		}
		return out, true, true, true
	default:
		return nil, false, true, false
	}
}

// classificationFromValues assembles a Classification from raw ID and
// modifier values. Any list turns the fragment into a Listed one; a scalar
// alongside a list is then ignored.
func classificationFromValues(idValue, modifierValue any, materializer Materializer) (Classification, error) {
	ids, idList, _, ok := stringsFromValue(idValue)
	if !ok {
		return nil, fmt.Errorf("id must be a string or a list of strings, got %T", idValue)
	}
	modifiers, modifierList, _, ok := stringsFromValue(modifierValue)
	if !ok {
		return nil, fmt.Errorf("modifier must be a string or a list of strings, got %T", modifierValue)
	}
	if idList || modifierList {
		listed := Listed{Materializer: materializer}
		if idList {
			listed.IDs = ids
		}
		if modifierList {
			listed.Modifiers = modifiers
		}
		return listed, nil
	}
	var scalar Scalar
	if len(ids) == 1 {
		scalar.ID = ids[0]
	}
	if len(modifiers) == 1 {
		scalar.Modifier = modifiers[0]
	}
	return scalar, nil
}
