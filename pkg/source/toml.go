package source

import (
	"errors"

	"github.com/pelletier/go-toml/v2"

	"github.com/goliatone/go-confscope/layering"
)

// TOMLParser parses TOML documents with go-toml. TOML tables carry no
// meaningful key order, so keys are sorted and the root key of a multi-table
// document is the lexically smallest table name.
type TOMLParser struct{}

// Parse implements Parser.
func (TOMLParser) Parse(path string, data []byte) (*layering.Tree, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			line, column := decodeErr.Position()
			return nil, &ParseError{Path: path, Line: line, Column: column, Err: err}
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	return layering.FromMap(raw), nil
}
