package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var archiveSuffixes = []string{".jar", ".zip", ".war", ".tar", ".tgz", ".tar.gz"}

// DirOption configures a Dir source.
type DirOption func(*Dir)

// WithFS walks fsys instead of the operating system file system. The root
// passed to NewDir is then interpreted inside fsys.
func WithFS(fsys fs.FS) DirOption {
	return func(d *Dir) {
		d.fsys = fsys
	}
}

// WithExtensions limits discovery to files with the given extensions. Each
// extension must have a registered parser.
func WithExtensions(extensions ...string) DirOption {
	return func(d *Dir) {
		d.extensions = nil
		for _, ext := range extensions {
			ext = normalizeExtension(ext)
			if ext != "" {
				d.extensions = append(d.extensions, ext)
			}
		}
	}
}

// WithParser registers parser for extension, replacing any existing one.
func WithParser(extension string, parser Parser) DirOption {
	return func(d *Dir) {
		ext := normalizeExtension(extension)
		if ext == "" || parser == nil {
			return
		}
		d.parsers[ext] = parser
	}
}

// Dir discovers fragments below a root directory, descending into nested
// subdirectories. Files are visited in lexical path order.
type Dir struct {
	root       string
	fsys       fs.FS
	parsers    map[string]Parser
	extensions []string
}

// NewDir returns a Dir rooted at root. Without WithFS the root is an
// operating system path and may name a single file.
func NewDir(root string, opts ...DirOption) *Dir {
	d := &Dir{
		root:    root,
		parsers: DefaultParsers(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Extensions returns the extensions the source will read, sorted.
func (d *Dir) Extensions() []string {
	if len(d.extensions) > 0 {
		out := append([]string(nil), d.extensions...)
		sort.Strings(out)
		return out
	}
	out := make([]string, 0, len(d.parsers))
	for ext := range d.parsers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Fragments implements Source.
func (d *Dir) Fragments(ctx context.Context) ([]Fragment, error) {
	if isArchive(d.root) {
		return nil, fmt.Errorf("%w: archive %q", ErrUnsupportedSource, d.root)
	}
	for _, ext := range d.Extensions() {
		if _, ok := d.parsers[ext]; !ok {
			return nil, fmt.Errorf("%w: no parser for %q", ErrUnknownFormat, ext)
		}
	}

	fsys, walkRoot, display, err := d.resolveRoot()
	if err != nil {
		return nil, err
	}

	accepted := make(map[string]struct{})
	for _, ext := range d.Extensions() {
		accepted[ext] = struct{}{}
	}

	var fragments []Fragment
	err = fs.WalkDir(fsys, walkRoot, func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := normalizeExtension(path.Ext(name))
		if _, ok := accepted[ext]; !ok {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("source: read %s: %w", name, err)
		}
		tree, err := d.parsers[ext].Parse(display(name), data)
		if err != nil {
			return err
		}
		fragments = append(fragments, Fragment{Path: display(name), Tree: tree})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fragments, nil
}

// resolveRoot returns the file system to walk, the root inside it and a
// function mapping walked names back to user-facing paths.
func (d *Dir) resolveRoot() (fs.FS, string, func(string) string, error) {
	if d.fsys != nil {
		root := strings.Trim(path.Clean(filepath.ToSlash(d.root)), "/")
		if root == "" {
			root = "."
		}
		return d.fsys, root, func(name string) string { return name }, nil
	}
	root := d.root
	if root == "" {
		root = "."
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, "", nil, fmt.Errorf("source: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return os.DirFS(filepath.Dir(root)), filepath.Base(root), func(string) string { return root }, nil
	}
	return os.DirFS(root), ".", func(name string) string {
		return filepath.Join(root, filepath.FromSlash(name))
	}, nil
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func isArchive(root string) bool {
	lower := strings.ToLower(root)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
