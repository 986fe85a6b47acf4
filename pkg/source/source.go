// Package source discovers configuration fragments and parses them into
// ordered layering trees.
//
// A Source yields Fragments in a deterministic order; the loader relies on
// that order for duplicate detection, so implementations must not shuffle
// their output between calls. Dir walks an fs.FS in lexical order, Static
// serves in-memory fragments and Multi concatenates sources.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-confscope/layering"
)

var (
	// ErrUnsupportedSource is returned for fragment roots that cannot be
	// enumerated, such as bundled archives.
	ErrUnsupportedSource = errors.New("source: unsupported source")
	// ErrUnknownFormat indicates no parser is registered for an extension.
	ErrUnknownFormat = errors.New("source: unknown format")
	// ErrNotMapping indicates a fragment whose top level is not a mapping.
	ErrNotMapping = errors.New("source: top level must be a mapping")
)

// Fragment is one discovered, parsed configuration tree.
type Fragment struct {
	// Path identifies where the fragment came from (file path or label).
	Path string
	// Tree holds the parsed content.
	Tree *layering.Tree
}

// Source enumerates fragments.
type Source interface {
	Fragments(ctx context.Context) ([]Fragment, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context) ([]Fragment, error)

// Fragments implements Source.
func (fn Func) Fragments(ctx context.Context) ([]Fragment, error) {
	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

type staticSource struct {
	fragments []Fragment
}

// Static serves a fixed list of fragments, mostly for tests and embedding.
func Static(fragments ...Fragment) Source {
	copied := make([]Fragment, len(fragments))
	for i, fragment := range fragments {
		copied[i] = Fragment{Path: fragment.Path, Tree: fragment.Tree.Clone()}
	}
	return staticSource{fragments: copied}
}

func (s staticSource) Fragments(ctx context.Context) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Fragment, len(s.fragments))
	copy(out, s.fragments)
	return out, nil
}

type multiSource struct {
	sources []Source
}

// Multi concatenates the fragments of several sources in argument order.
func Multi(sources ...Source) Source {
	filtered := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			filtered = append(filtered, src)
		}
	}
	return multiSource{sources: filtered}
}

func (m multiSource) Fragments(ctx context.Context) ([]Fragment, error) {
	var out []Fragment
	for i, src := range m.sources {
		fragments, err := src.Fragments(ctx)
		if err != nil {
			return nil, fmt.Errorf("source: multi[%d]: %w", i, err)
		}
		out = append(out, fragments...)
	}
	return out, nil
}
