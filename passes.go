package confscope

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-confscope/layering"
	"github.com/goliatone/go-confscope/pkg/source"
)

// Slot is one planned registry insertion produced by a pass.
type Slot struct {
	Type   string
	Level  layering.Level
	Key    string
	Tree   *layering.Tree
	Source string
}

// ModifierPass plans the modifier and default slots for one type. Scalar
// fragments that carry an ID are left to IDPass. Two fragments claiming the
// same modifier, or two defaults, fail with a DuplicateError.
func ModifierPass(typeName string, fragments []source.Fragment, classifier Classifier) ([]Slot, error) {
	plan := newSlotPlan(typeName)
	for _, fragment := range fragments {
		classification, err := classify(typeName, fragment, classifier)
		if err != nil {
			return nil, err
		}
		switch c := classification.(type) {
		case nil:
		case Scalar:
			if c.ID != "" {
				continue
			}
			if err := plan.add(modifierLevel(c.Modifier), modifierKey(c.Modifier), fragment.Tree, fragment.Path); err != nil {
				return nil, err
			}
		case Listed:
			for _, modifier := range c.Modifiers {
				tree, err := materialize(typeName, fragment, c.Materializer, modifier, Materializer.TreeForModifier)
				if err != nil {
					return nil, err
				}
				if err := plan.add(modifierLevel(modifier), modifierKey(modifier), tree, fragment.Path); err != nil {
					return nil, err
				}
			}
		default:
			return nil, unsupportedClassification(typeName, fragment, classification)
		}
	}
	return plan.slots, nil
}

// IDPass plans the ID slots for one type. A scalar fragment carrying both an
// ID and a modifier lands here only.
func IDPass(typeName string, fragments []source.Fragment, classifier Classifier) ([]Slot, error) {
	plan := newSlotPlan(typeName)
	for _, fragment := range fragments {
		classification, err := classify(typeName, fragment, classifier)
		if err != nil {
			return nil, err
		}
		switch c := classification.(type) {
		case nil:
		case Scalar:
			if c.ID == "" {
				continue
			}
			if err := plan.add(layering.LevelID, c.ID, fragment.Tree, fragment.Path); err != nil {
				return nil, err
			}
		case Listed:
			for _, id := range c.IDs {
				tree, err := materialize(typeName, fragment, c.Materializer, id, Materializer.TreeForID)
				if err != nil {
					return nil, err
				}
				if err := plan.add(layering.LevelID, id, tree, fragment.Path); err != nil {
					return nil, err
				}
			}
		default:
			return nil, unsupportedClassification(typeName, fragment, classification)
		}
	}
	return plan.slots, nil
}

type slotPlan struct {
	typeName string
	slots    []Slot
	seen     map[string]string
}

func newSlotPlan(typeName string) *slotPlan {
	return &slotPlan{typeName: typeName, seen: make(map[string]string)}
}

func (p *slotPlan) add(level layering.Level, key string, tree *layering.Tree, path string) error {
	if previous, exists := p.seen[key]; exists {
		return &DuplicateError{
			Type:     p.typeName,
			Level:    level,
			Key:      key,
			Source:   path,
			Previous: previous,
		}
	}
	p.seen[key] = path
	p.slots = append(p.slots, Slot{
		Type:   p.typeName,
		Level:  level,
		Key:    key,
		Tree:   tree,
		Source: path,
	})
	return nil
}

func classify(typeName string, fragment source.Fragment, classifier Classifier) (Classification, error) {
	if classifier == nil {
		return nil, ErrNoClassifier
	}
	classification, err := classifyFragment(classifier, typeName, fragment.Path, fragment.Tree)
	if err != nil {
		var classErr *ClassificationError
		if errors.As(err, &classErr) {
			return nil, err
		}
		return nil, &ClassificationError{Type: typeName, Source: fragment.Path, Err: err}
	}
	return classification, nil
}

// materialize layers the single-key tree over the pristine fragment, so each
// listed key sees only its own value.
func materialize(
	typeName string,
	fragment source.Fragment,
	materializer Materializer,
	key string,
	build func(Materializer, string) (*layering.Tree, error),
) (*layering.Tree, error) {
	if key == "" {
		return nil, &ClassificationError{Type: typeName, Source: fragment.Path, Err: ErrEmptyIdentifier}
	}
	if materializer == nil {
		return nil, &ClassificationError{
			Type:   typeName,
			Source: fragment.Path,
			Err:    fmt.Errorf("listed classification has no materializer"),
		}
	}
	pinned, err := build(materializer, key)
	if err != nil {
		return nil, &ClassificationError{Type: typeName, Source: fragment.Path, Err: err}
	}
	return layering.WithFallback(pinned, fragment.Tree), nil
}

func unsupportedClassification(typeName string, fragment source.Fragment, classification Classification) error {
	return &ClassificationError{
		Type:   typeName,
		Source: fragment.Path,
		Err:    fmt.Errorf("unsupported classification %T", classification),
	}
}

func modifierKey(modifier string) string {
	if modifier == "" {
		return DefaultModifier
	}
	return modifier
}

func modifierLevel(modifier string) layering.Level {
	if modifier == "" || modifier == DefaultModifier {
		return layering.LevelDefault
	}
	return layering.LevelModifier
}
