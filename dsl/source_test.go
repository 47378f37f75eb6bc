package dsl

import (
	"context"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recschema "github.com/mvanderlee/recschema"
)

func TestLoadJSON(t *testing.T) {
	ResetCache()
	ctx := context.Background()
	rec := recschema.NewRecord("Account").
		Field("id", recschema.Int()).
		Field("balance", recschema.Float()).
		Field("owner", recschema.Str())
	s, err := ClassSchema(rec)
	require.NoError(t, err)

	v, err := LoadJSON(ctx, s, []byte(`{"id": 9007199254740993, "balance": 12.5, "owner": "ada"}`))
	require.NoError(t, err)
	inst := v.(*recschema.Instance)
	id, _ := inst.Attr("id")
	assert.Equal(t, 9007199254740993, id, "integers keep full precision through json.Number")
	balance, _ := inst.Attr("balance")
	assert.Equal(t, 12.5, balance)
}

func TestLoadJSONReaderAndErrors(t *testing.T) {
	ResetCache()
	ctx := context.Background()
	s, err := ClassSchema(newPoint())
	require.NoError(t, err)

	v, err := LoadJSONReader(ctx, s, strings.NewReader(`{"x": 1, "y": 2}`))
	require.NoError(t, err)
	assert.IsType(t, (*recschema.Instance)(nil), v)

	_, err = LoadJSON(ctx, s, []byte(`{not json`))
	var iss recschema.Issues
	require.ErrorAs(t, err, &iss)
	assert.Equal(t, recschema.CodeParseError, iss[0].Code)
}

func TestDumpJSON(t *testing.T) {
	ResetCache()
	ctx := context.Background()
	s, err := ClassSchema(newPoint())
	require.NoError(t, err)

	v, err := s.Load(ctx, map[string]any{"x": 1.5, "y": 2.0})
	require.NoError(t, err)
	data, err := DumpJSON(ctx, s, v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, gojson.Unmarshal(data, &m))
	assert.Equal(t, map[string]any{"x": 1.5, "y": 2.0}, m)
}

func TestLoadManyJSON(t *testing.T) {
	ResetCache()
	ctx := context.Background()
	s, err := ClassSchema(newPoint())
	require.NoError(t, err)

	vs, err := LoadManyJSON(ctx, s, []byte(`[{"x":1,"y":2},{"x":3,"y":4}]`))
	require.NoError(t, err)
	assert.Len(t, vs, 2)
}

func TestLoadYAML(t *testing.T) {
	ResetCache()
	ctx := context.Background()
	rec := recschema.NewRecord("Service").
		Field("name", recschema.Str()).
		Field("replicas", recschema.Int()).
		Field("labels", recschema.MapOf(recschema.Str(), recschema.Str()),
			recschema.WithDefaultFactory(func() any { return map[string]any{} }))
	s, err := ClassSchema(rec)
	require.NoError(t, err)

	v, err := LoadYAML(ctx, s, []byte(`
name: api
replicas: 3
labels:
  team: infra
`))
	require.NoError(t, err)
	inst := v.(*recschema.Instance)
	replicas, _ := inst.Attr("replicas")
	assert.Equal(t, 3, replicas)
	labels, _ := inst.Attr("labels")
	assert.Equal(t, map[string]any{"team": "infra"}, labels)

	_, err = LoadYAML(ctx, s, []byte(`- just
- a
- list`))
	var iss recschema.Issues
	require.ErrorAs(t, err, &iss)
}

func TestDumpYAML(t *testing.T) {
	ResetCache()
	ctx := context.Background()
	s, err := ClassSchema(newPoint())
	require.NoError(t, err)

	v, err := s.Load(ctx, map[string]any{"x": 1.0, "y": 2.0})
	require.NoError(t, err)
	data, err := DumpYAML(ctx, s, v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.Equal(t, map[string]any{"x": 1.0, "y": 2.0}, m)
}
