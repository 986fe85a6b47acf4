package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-confscope/layering"
)

// JSONParser parses JSON objects from the token stream so object keys keep
// their document order. Integral numbers decode as int64, others as float64.
type JSONParser struct{}

// Parse implements Parser.
func (JSONParser) Parse(path string, data []byte) (*layering.Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return layering.NewTree(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, jsonParseError(path, data, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &ParseError{Path: path, Err: ErrNotMapping}
	}
	tree, err := jsonObject(dec)
	if err != nil {
		return nil, jsonParseError(path, data, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level object")
		}
		return nil, jsonParseError(path, data, err)
	}
	return tree, nil
}

func jsonParseError(path string, data []byte, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, column := lineColumn(data, syntaxErr.Offset)
		return &ParseError{Path: path, Line: line, Column: column, Err: err}
	}
	return &ParseError{Path: path, Err: err}
}

// jsonObject reads key/value pairs after the opening brace has been consumed.
func jsonObject(dec *json.Decoder) (*layering.Tree, error) {
	builder := layering.NewBuilder()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		value, err := jsonValue(dec)
		if err != nil {
			return nil, err
		}
		builder.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return builder.Build(), nil
}

func jsonValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return jsonObject(dec)
		case '[':
			list := []any{}
			for dec.More() {
				item, err := jsonValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", v)
		}
	case json.Number:
		return jsonNumber(v)
	default:
		return v, nil
	}
}

func jsonNumber(number json.Number) (any, error) {
	if !strings.ContainsAny(number.String(), ".eE") {
		if i, err := number.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := number.Float64()
	if err != nil {
		return nil, err
	}
	return f, nil
}
