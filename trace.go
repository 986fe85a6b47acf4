package confscope

import (
	"encoding/json"

	"github.com/goliatone/go-confscope/layering"
)

// Trace captures provenance for one path of a resolved tree: the effective
// value and what every candidate level held for it.
type Trace struct {
	Type   string       `json:"type"`
	Path   string       `json:"path"`
	Value  any          `json:"value,omitempty"`
	Found  bool         `json:"found"`
	Layers []Provenance `json:"layers"`
}

// Provenance describes one level of a resolution chain. Present reports
// whether the registry held an entry for the level; Found reports whether
// that entry's own fragment set the traced path.
type Provenance struct {
	Level   layering.Level `json:"level"`
	Key     string         `json:"key"`
	Source  string         `json:"source,omitempty"`
	Present bool           `json:"present"`
	Path    string         `json:"path,omitempty"`
	Value   any            `json:"value,omitempty"`
	Found   bool           `json:"found"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON. Numbers decode as float64.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// chain lists the candidate levels for consumer, strongest first: the ID
// level when the consumer has an ID, the modifier level when it has a
// modifier, and always the default.
func chain(registry *TypeRegistry, consumer Consumer) []Provenance {
	var layers []Provenance
	if id := consumer.ConfigID(); id != "" {
		layers = append(layers, provenance(registry, layering.LevelID, id))
	}
	if modifier := consumerModifier(consumer); modifier != "" {
		layers = append(layers, provenance(registry, layering.LevelModifier, modifier))
	}
	return append(layers, provenance(registry, layering.LevelDefault, DefaultModifier))
}

func provenance(registry *TypeRegistry, level layering.Level, key string) Provenance {
	layer := Provenance{Level: level, Key: key}
	if entry, ok := registry.Get(level, key); ok {
		layer.Present = true
		layer.Source = entry.Source()
	}
	return layer
}

// tracePath fills path values into layers from each entry's original
// fragment.
func tracePath(registry *TypeRegistry, layers []Provenance, path string) []Provenance {
	out := make([]Provenance, len(layers))
	for i, layer := range layers {
		layer.Path = path
		if entry, ok := registry.Get(layer.Level, layer.Key); ok {
			layer.Value, layer.Found = entry.Origin().Lookup(path)
		}
		out[i] = layer
	}
	return out
}
