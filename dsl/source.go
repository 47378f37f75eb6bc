package dsl

import (
	"bytes"
	"context"
	"io"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	recschema "github.com/mvanderlee/recschema"
)

// LoadJSON decodes a JSON object and loads it through the schema. Numbers
// decode as json.Number so integer fields keep full precision.
func LoadJSON(ctx context.Context, s *recschema.Schema, data []byte) (any, error) {
	return LoadJSONReader(ctx, s, bytes.NewReader(data))
}

// LoadJSONReader is LoadJSON over a stream.
func LoadJSONReader(ctx context.Context, s *recschema.Schema, r io.Reader) (any, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, recschema.IssuesFromErr("/", err)
	}
	return s.Load(ctx, m)
}

// DumpJSON serializes a record value through the schema and encodes the
// result as JSON.
func DumpJSON(ctx context.Context, s *recschema.Schema, v any) ([]byte, error) {
	m, err := s.Dump(ctx, v)
	if err != nil {
		return nil, err
	}
	return gojson.Marshal(m)
}

// LoadManyJSON decodes a JSON array of objects and loads the batch.
func LoadManyJSON(ctx context.Context, s *recschema.Schema, data []byte) ([]any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var ms []map[string]any
	if err := dec.Decode(&ms); err != nil {
		return nil, recschema.IssuesFromErr("/", err)
	}
	return s.LoadMany(ctx, ms)
}

// LoadYAML decodes a YAML mapping and loads it through the schema.
func LoadYAML(ctx context.Context, s *recschema.Schema, data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, recschema.IssuesFromErr("/", err)
	}
	m, ok := normalizeYAML(raw).(map[string]any)
	if !ok {
		return nil, recschema.IssuesFromErr("/", recschema.Configf("top-level YAML value is not a mapping"))
	}
	return s.Load(ctx, m)
}

// DumpYAML serializes a record value through the schema and encodes the
// result as YAML.
func DumpYAML(ctx context.Context, s *recschema.Schema, v any) ([]byte, error) {
	m, err := s.Dump(ctx, v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(m)
}

// normalizeYAML rewrites any-keyed maps produced by the YAML decoder into
// string-keyed ones, recursively.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeYAML(item)
		}
		return out
	}
	return v
}
