package confscope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-confscope/layering"
	"github.com/goliatone/go-confscope/pkg/source"
)

func serviceFragment(path string, fields map[string]any) source.Fragment {
	return source.Fragment{Path: path, Tree: serviceTree(fields)}
}

func serviceClassifier() Classifier {
	return NewFieldClassifier(WithFields("serviceId", "modifier"))
}

func slotKeys(slots []Slot) []string {
	keys := make([]string, len(slots))
	for i, slot := range slots {
		keys[i] = slot.Level.String() + ":" + slot.Key
	}
	return keys
}

func TestModifierPassPlansDefaultsAndModifiers(t *testing.T) {
	fragments := []source.Fragment{
		serviceFragment("default.yaml", map[string]any{"port": 8080}),
		serviceFragment("prod.yaml", map[string]any{"modifier": "prod"}),
		serviceFragment("svc1.yaml", map[string]any{"serviceId": "svc1", "modifier": "eu"}),
		serviceFragment("shared.yaml", map[string]any{"modifier": []any{"qa", "staging"}, "debug": true}),
	}

	slots, err := ModifierPass("service", fragments, serviceClassifier())
	require.NoError(t, err)
	require.Equal(t, []string{"default:*", "modifier:prod", "modifier:qa", "modifier:staging"}, slotKeys(slots))

	staging := slots[3]
	require.Equal(t, "shared.yaml", staging.Source)
	modifier, _ := staging.Tree.LookupString("service.modifier")
	require.Equal(t, "staging", modifier)
	debug, _ := staging.Tree.Lookup("service.debug")
	require.Equal(t, true, debug)
}

func TestIDPassPlansScalarAndListedIDs(t *testing.T) {
	fragments := []source.Fragment{
		serviceFragment("default.yaml", map[string]any{"port": 8080}),
		serviceFragment("svc1.yaml", map[string]any{"serviceId": "svc1", "modifier": "eu"}),
		serviceFragment("pair.yaml", map[string]any{"serviceId": []any{"a", "b"}, "port": 9090}),
	}

	slots, err := IDPass("service", fragments, serviceClassifier())
	require.NoError(t, err)
	require.Equal(t, []string{"id:svc1", "id:a", "id:b"}, slotKeys(slots))

	for _, slot := range slots[1:] {
		id, _ := slot.Tree.LookupString("service.serviceId")
		require.Equal(t, slot.Key, id)
		port, _ := slot.Tree.Lookup("service.port")
		require.Equal(t, 9090, port)
	}
}

func TestListedEntriesDoNotAccumulate(t *testing.T) {
	fragments := []source.Fragment{
		serviceFragment("pair.yaml", map[string]any{"modifier": []any{"prod", "qa"}}),
	}
	materializer := recordingMaterializer{}
	classifier := ClassifierFunc(func(string, *layering.Tree) (Classification, error) {
		return Listed{Modifiers: []string{"prod", "qa"}, Materializer: materializer}, nil
	})

	slots, err := ModifierPass("service", fragments, classifier)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	_, leaked := slots[1].Tree.Lookup("service.pinned_prod")
	require.False(t, leaked, "second slot must not carry the first slot's materialized tree")
	_, own := slots[1].Tree.Lookup("service.pinned_qa")
	require.True(t, own)
}

func TestPassesDetectDuplicates(t *testing.T) {
	cases := []struct {
		name      string
		fragments []source.Fragment
		pass      func(string, []source.Fragment, Classifier) ([]Slot, error)
		sentinel  error
	}{
		{
			name: "default",
			fragments: []source.Fragment{
				serviceFragment("a.yaml", map[string]any{"port": 1}),
				serviceFragment("b.yaml", map[string]any{"port": 2}),
			},
			pass:     ModifierPass,
			sentinel: ErrDuplicateDefault,
		},
		{
			name: "modifier across scalar and list",
			fragments: []source.Fragment{
				serviceFragment("a.yaml", map[string]any{"modifier": "prod"}),
				serviceFragment("b.yaml", map[string]any{"modifier": []any{"qa", "prod"}}),
			},
			pass:     ModifierPass,
			sentinel: ErrDuplicateModifier,
		},
		{
			name: "id",
			fragments: []source.Fragment{
				serviceFragment("a.yaml", map[string]any{"serviceId": "svc1"}),
				serviceFragment("b.yaml", map[string]any{"serviceId": "svc1", "modifier": "prod"}),
			},
			pass:     IDPass,
			sentinel: ErrDuplicateID,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slots, err := tc.pass("service", tc.fragments, serviceClassifier())
			require.Nil(t, slots)
			require.ErrorIs(t, err, tc.sentinel)
			require.ErrorIs(t, err, ErrDuplicateRegistration)

			var dup *DuplicateError
			require.True(t, errors.As(err, &dup))
			require.Equal(t, "b.yaml", dup.Source)
			require.Equal(t, "a.yaml", dup.Previous)
		})
	}
}

func TestPassesWrapClassifierFailures(t *testing.T) {
	fragments := []source.Fragment{serviceFragment("bad.yaml", map[string]any{"serviceId": 7})}

	_, err := IDPass("service", fragments, serviceClassifier())
	require.ErrorIs(t, err, ErrClassification)

	var classErr *ClassificationError
	require.True(t, errors.As(err, &classErr))
	require.Equal(t, "bad.yaml", classErr.Source)
	require.Equal(t, "service", classErr.Type)

	listedWithoutMaterializer := ClassifierFunc(func(string, *layering.Tree) (Classification, error) {
		return Listed{IDs: []string{"a"}}, nil
	})
	_, err = IDPass("service", fragments, listedWithoutMaterializer)
	require.ErrorIs(t, err, ErrClassification)

	emptyKey := ClassifierFunc(func(string, *layering.Tree) (Classification, error) {
		return Listed{Modifiers: []string{""}, Materializer: FieldMaterializer{Type: "service", IDField: "id", ModifierField: "modifier"}}, nil
	})
	_, err = ModifierPass("service", fragments, emptyKey)
	require.ErrorIs(t, err, ErrEmptyIdentifier)

	_, err = ModifierPass("service", fragments, nil)
	require.ErrorIs(t, err, ErrNoClassifier)
}

func TestPassesSkipUnclassifiedFragments(t *testing.T) {
	fragments := []source.Fragment{serviceFragment("a.yaml", map[string]any{"port": 1})}
	none := ClassifierFunc(func(string, *layering.Tree) (Classification, error) { return nil, nil })

	slots, err := ModifierPass("service", fragments, none)
	require.NoError(t, err)
	require.Empty(t, slots)
}

type recordingMaterializer struct{}

func (recordingMaterializer) TreeForID(id string) (*layering.Tree, error) {
	return layering.SetPath(layering.NewTree(), "service.pinned_"+id, true), nil
}

func (recordingMaterializer) TreeForModifier(modifier string) (*layering.Tree, error) {
	return layering.SetPath(layering.NewTree(), "service.pinned_"+modifier, true), nil
}
