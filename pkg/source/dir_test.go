package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-confscope/layering"
)

func TestDirWalksNestedDirectoriesInLexicalOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"conf/b.yaml":            {Data: []byte("service:\n  modifier: prod\n")},
		"conf/a.yaml":            {Data: []byte("service:\n  port: 8080\n")},
		"conf/nested/c.json":     {Data: []byte(`{"service":{"serviceId":"svc1"}}`)},
		"conf/nested/ignored.md": {Data: []byte("# notes")},
		"other/d.yaml":           {Data: []byte("service: {}\n")},
	}

	fragments, err := NewDir("conf", WithFS(fsys)).Fragments(context.Background())
	require.NoError(t, err)

	paths := make([]string, len(fragments))
	for i, fragment := range fragments {
		paths[i] = fragment.Path
	}
	require.Equal(t, []string{"conf/a.yaml", "conf/b.yaml", "conf/nested/c.json"}, paths)

	id, ok := fragments[2].Tree.LookupString("service.serviceId")
	require.True(t, ok)
	require.Equal(t, "svc1", id)
}

func TestDirExtensionFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("service: {}\n")},
		"b.json": {Data: []byte(`{"service":{}}`)},
		"c.toml": {Data: []byte("[service]\nport = 1\n")},
	}

	fragments, err := NewDir(".", WithFS(fsys), WithExtensions("json", ".TOML")).Fragments(context.Background())
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	require.Equal(t, "b.json", fragments[0].Path)
	require.Equal(t, "c.toml", fragments[1].Path)
}

func TestDirUnknownExtensionFails(t *testing.T) {
	_, err := NewDir(".", WithFS(fstest.MapFS{}), WithExtensions(".conf")).Fragments(context.Background())
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDirCustomParser(t *testing.T) {
	fsys := fstest.MapFS{"app.conf": {Data: []byte("ignored")}}
	parser := ParserFunc(func(path string, _ []byte) (*layering.Tree, error) {
		return layering.NewBuilder().Set("app", map[string]any{"from": path}).Build(), nil
	})

	fragments, err := NewDir(".", WithFS(fsys), WithParser("conf", parser), WithExtensions(".conf")).Fragments(context.Background())
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	from, _ := fragments[0].Tree.LookupString("app.from")
	require.Equal(t, "app.conf", from)
}

func TestDirArchiveRootIsUnsupported(t *testing.T) {
	for _, root := range []string{"bundle.jar", "configs.ZIP", "release.tar.gz"} {
		_, err := NewDir(root).Fragments(context.Background())
		require.ErrorIs(t, err, ErrUnsupportedSource, root)
	}
}

func TestDirParseErrorCarriesPath(t *testing.T) {
	fsys := fstest.MapFS{"broken.json": {Data: []byte("{\n  \"service\": {,\n}")}}

	_, err := NewDir(".", WithFS(fsys)).Fragments(context.Background())

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
	require.Equal(t, "broken.json", parseErr.Path)
	require.Equal(t, 2, parseErr.Line)
}

func TestDirHonoursCancellation(t *testing.T) {
	fsys := fstest.MapFS{"a.yaml": {Data: []byte("service: {}\n")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDir(".", WithFS(fsys)).Fragments(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDirOperatingSystemPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nested", "svc.yaml"), []byte("service:\n  port: 1\n"), 0o644))

	fragments, err := NewDir(root).Fragments(context.Background())
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Equal(t, filepath.Join(root, "nested", "svc.yaml"), fragments[0].Path)

	single := filepath.Join(root, "nested", "svc.yaml")
	fragments, err = NewDir(single).Fragments(context.Background())
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Equal(t, single, fragments[0].Path)

	_, err = NewDir(filepath.Join(root, "missing")).Fragments(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStaticAndMulti(t *testing.T) {
	first := Static(Fragment{Path: "a", Tree: layering.FromMap(map[string]any{"service": map[string]any{}})})
	second := Func(func(context.Context) ([]Fragment, error) {
		return []Fragment{{Path: "b", Tree: layering.NewTree()}}, nil
	})

	fragments, err := Multi(first, nil, second).Fragments(context.Background())
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	require.Equal(t, "a", fragments[0].Path)
	require.Equal(t, "b", fragments[1].Path)

	failing := Func(func(context.Context) ([]Fragment, error) { return nil, ErrUnsupportedSource })
	_, err = Multi(first, failing).Fragments(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedSource)
}
