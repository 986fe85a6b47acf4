package confscope

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-confscope/layering"
)

var (
	// ErrDuplicateRegistration is matched by every duplicate fault raised
	// while loading. Duplicates signal inconsistent source configuration and
	// abort the load.
	ErrDuplicateRegistration = errors.New("confscope: duplicate registration")
	// ErrDuplicateID indicates two slots for the same ID within one type.
	ErrDuplicateID = fmt.Errorf("%w: id", ErrDuplicateRegistration)
	// ErrDuplicateModifier indicates two slots for the same modifier within
	// one type.
	ErrDuplicateModifier = fmt.Errorf("%w: modifier", ErrDuplicateRegistration)
	// ErrDuplicateDefault indicates two default fragments within one type.
	ErrDuplicateDefault = fmt.Errorf("%w: default", ErrDuplicateRegistration)

	// ErrUnknownLevel is an internal fault: resolution reached a level it
	// does not know how to compose.
	ErrUnknownLevel = errors.New("confscope: unknown resolution level")

	// ErrClassification is matched by every classifier failure.
	ErrClassification = errors.New("confscope: classification failed")
	// ErrEmptyIdentifier indicates an empty ID or modifier key.
	ErrEmptyIdentifier = errors.New("confscope: identifier must not be empty")
	// ErrNoClassifier indicates a loader built without a classifier.
	ErrNoClassifier = errors.New("confscope: classifier not configured")
	// ErrNoSource indicates a loader built without a fragment source.
	ErrNoSource = errors.New("confscope: source not configured")
)

// DuplicateError describes a registry slot claimed twice for one type.
type DuplicateError struct {
	Type     string
	Level    layering.Level
	Key      string
	Source   string
	Previous string
}

func (e *DuplicateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	subject := fmt.Sprintf("%s %q", e.Level, e.Key)
	if e.Level == layering.LevelDefault {
		subject = "default"
	}
	msg := fmt.Sprintf("confscope: duplicate %s for type %q", subject, e.Type)
	if e.Source != "" {
		msg += " in " + e.Source
	}
	if e.Previous != "" {
		msg += " (first registered by " + e.Previous + ")"
	}
	return msg
}

func (e *DuplicateError) Unwrap() error {
	if e == nil {
		return nil
	}
	switch e.Level {
	case layering.LevelID:
		return ErrDuplicateID
	case layering.LevelModifier:
		return ErrDuplicateModifier
	case layering.LevelDefault:
		return ErrDuplicateDefault
	default:
		return ErrDuplicateRegistration
	}
}

// ClassificationError wraps a classifier or materializer failure with the
// fragment that triggered it.
type ClassificationError struct {
	Type   string
	Source string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("confscope: classify %q fragment %s: %v", e.Type, e.Source, e.Err)
}

func (e *ClassificationError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrClassification, e.Err}
}
