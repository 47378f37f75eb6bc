package dsl

import (
	"context"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"

	recschema "github.com/mvanderlee/recschema"
)

func TestStringFieldStrict(t *testing.T) {
	ctx := context.Background()
	f := newStringField(recschema.FieldOptions{})

	if v, iss := f.Deserialize(ctx, "/s", "hello"); len(iss) != 0 || v != "hello" {
		t.Fatalf("Deserialize(hello) = %v, %v", v, iss)
	}
	for _, bad := range []any{42, 1.5, true, []any{"x"}} {
		if _, iss := f.Deserialize(ctx, "/s", bad); len(iss) == 0 {
			t.Errorf("Deserialize(%v) should fail", bad)
		} else if iss[0].Code != recschema.CodeInvalidType {
			t.Errorf("Deserialize(%v) code = %s", bad, iss[0].Code)
		}
	}
}

func TestIntFieldCoercion(t *testing.T) {
	ctx := context.Background()
	f := newIntField(recschema.FieldOptions{})

	accept := []struct {
		in   any
		want int
	}{
		{42, 42},
		{int64(7), 7},
		{float64(3), 3},
		{"19", 19},
		{gojson.Number("23"), 23},
		{gojson.Number("4.0"), 4},
	}
	for _, tc := range accept {
		v, iss := f.Deserialize(ctx, "/n", tc.in)
		if len(iss) != 0 {
			t.Errorf("Deserialize(%v): %v", tc.in, iss)
			continue
		}
		if v != tc.want {
			t.Errorf("Deserialize(%v) = %v (%T), want %d", tc.in, v, v, tc.want)
		}
	}
	reject := []any{3.5, "19.5", "abc", true, gojson.Number("1.5")}
	for _, in := range reject {
		if _, iss := f.Deserialize(ctx, "/n", in); len(iss) == 0 {
			t.Errorf("Deserialize(%v) should fail", in)
		}
	}
}

func TestFloatFieldCoercion(t *testing.T) {
	ctx := context.Background()
	f := newFloatField(recschema.FieldOptions{})

	if v, iss := f.Deserialize(ctx, "/x", 3); len(iss) != 0 || v != 3.0 {
		t.Fatalf("integers widen to float64: %v, %v", v, iss)
	}
	if v, iss := f.Deserialize(ctx, "/x", "2.5"); len(iss) != 0 || v != 2.5 {
		t.Fatalf("numeric strings parse: %v, %v", v, iss)
	}
	if _, iss := f.Deserialize(ctx, "/x", "two"); len(iss) == 0 {
		t.Fatalf("non-numeric strings fail")
	}
	if _, iss := f.Deserialize(ctx, "/x", true); len(iss) == 0 {
		t.Fatalf("booleans are not numbers")
	}
}

func TestBoolFieldCoercion(t *testing.T) {
	ctx := context.Background()
	f := newBoolField(recschema.FieldOptions{})

	truthy := []any{true, "true", "True", "1", 1, float64(1)}
	for _, in := range truthy {
		if v, iss := f.Deserialize(ctx, "/b", in); len(iss) != 0 || v != true {
			t.Errorf("Deserialize(%v) = %v, %v", in, v, iss)
		}
	}
	falsy := []any{false, "false", "0", 0}
	for _, in := range falsy {
		if v, iss := f.Deserialize(ctx, "/b", in); len(iss) != 0 || v != false {
			t.Errorf("Deserialize(%v) = %v, %v", in, v, iss)
		}
	}
	for _, in := range []any{"yes", 2, 0.5} {
		if _, iss := f.Deserialize(ctx, "/b", in); len(iss) == 0 {
			t.Errorf("Deserialize(%v) should fail", in)
		}
	}
}

func TestTimeField(t *testing.T) {
	ctx := context.Background()
	f := newTimeField(recschema.FieldOptions{})

	v, iss := f.Deserialize(ctx, "/at", "2024-06-01T12:00:00Z")
	if len(iss) != 0 {
		t.Fatalf("Deserialize: %v", iss)
	}
	got := v.(time.Time)
	want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("parsed %v, want %v", got, want)
	}

	s, iss := f.Serialize(ctx, "/at", want)
	if len(iss) != 0 || s != "2024-06-01T12:00:00Z" {
		t.Fatalf("Serialize = %v, %v", s, iss)
	}

	if _, iss := f.Deserialize(ctx, "/at", "June 1st"); len(iss) == 0 {
		t.Fatalf("malformed timestamps fail")
	}
	if iss := func() recschema.Issues { _, iss := f.Deserialize(ctx, "/at", 12); return iss }(); len(iss) == 0 {
		t.Fatalf("numbers are not timestamps")
	}
}

func TestNullHandling(t *testing.T) {
	ctx := context.Background()

	strict := newStringField(recschema.FieldOptions{})
	if _, iss := strict.Deserialize(ctx, "/s", nil); len(iss) == 0 || iss[0].Code != recschema.CodeNullNotAllowed {
		t.Fatalf("nulls rejected by default: %v", iss)
	}

	lax := newStringField(recschema.FieldOptions{AllowNil: true})
	if v, iss := lax.Deserialize(ctx, "/s", nil); len(iss) != 0 || v != nil {
		t.Fatalf("AllowNil admits nulls: %v, %v", v, iss)
	}
}

func TestFieldRulesRunOnLoad(t *testing.T) {
	ctx := context.Background()
	called := 0
	rule := func(path string, v any) recschema.Issues {
		called++
		if v.(string) == "bad" {
			return recschema.Issues{{Path: path, Code: recschema.CodeInvalidChoice, Message: "nope"}}
		}
		return nil
	}
	f := newStringField(recschema.FieldOptions{Rules: []recschema.Rule{rule}})

	if _, iss := f.Deserialize(ctx, "/s", "ok"); len(iss) != 0 {
		t.Fatalf("unexpected issues: %v", iss)
	}
	if _, iss := f.Deserialize(ctx, "/s", "bad"); len(iss) == 0 {
		t.Fatalf("rule violations surface")
	}
	if _, iss := f.Serialize(ctx, "/s", "bad"); len(iss) != 0 {
		t.Fatalf("rules do not run on dump: %v", iss)
	}
	if called != 2 {
		t.Fatalf("rule ran %d times, want 2", called)
	}
}
