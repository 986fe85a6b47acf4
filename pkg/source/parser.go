package source

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-confscope/layering"
)

// Parser turns raw file content into a tree. path is only used for error
// reporting.
type Parser interface {
	Parse(path string, data []byte) (*layering.Tree, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(path string, data []byte) (*layering.Tree, error)

// Parse implements Parser.
func (fn ParserFunc) Parse(path string, data []byte) (*layering.Tree, error) {
	return fn(path, data)
}

// DefaultParsers returns the built-in parsers keyed by lower-case extension.
func DefaultParsers() map[string]Parser {
	yamlParser := YAMLParser{}
	return map[string]Parser{
		".yaml": yamlParser,
		".yml":  yamlParser,
		".json": JSONParser{},
		".toml": TOMLParser{},
	}
}

// ParseError represents an error while parsing a configuration fragment.
type ParseError struct {
	// Path is the fragment path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("source: parse %s at line %d, column %d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("source: parse %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("source: parse %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// lineColumn converts a byte offset into 1-based line and column numbers.
func lineColumn(data []byte, offset int64) (int, int) {
	if offset <= 0 {
		return 0, 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := string(data[:offset])
	line := strings.Count(prefix, "\n") + 1
	column := len(prefix) - strings.LastIndex(prefix, "\n") - 1
	return line, column
}
