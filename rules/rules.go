// Package rules provides reusable field validators producing structured
// issues. The synthesizer wires them in for literal types, and callers attach
// them through the "validate" field option or NewType alias options.
package rules

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	recschema "github.com/mvanderlee/recschema"
	"github.com/mvanderlee/recschema/i18n"
)

// Equal accepts only values equal to want. Numeric values compare across
// int/float representations.
func Equal(want any) recschema.Rule {
	return func(path string, v any) recschema.Issues {
		if looseEqual(v, want) {
			return nil
		}
		return recschema.Issues{{
			Path:    path,
			Code:    recschema.CodeNotEqual,
			Message: i18n.T(recschema.CodeNotEqual, map[string]string{"want": fmt.Sprintf("%v", want)}),
			Params:  map[string]any{"want": want, "got": v},
			Rule:    "equal",
		}}
	}
}

// OneOf accepts only values contained in choices.
func OneOf(choices ...any) recschema.Rule {
	return func(path string, v any) recschema.Issues {
		for _, c := range choices {
			if looseEqual(v, c) {
				return nil
			}
		}
		strs := make([]string, len(choices))
		for i, c := range choices {
			strs[i] = fmt.Sprintf("%v", c)
		}
		return recschema.Issues{{
			Path:    path,
			Code:    recschema.CodeInvalidChoice,
			Message: i18n.T(recschema.CodeInvalidChoice, map[string]string{"choices": strings.Join(strs, ", ")}),
			Params:  map[string]any{"choices": choices, "got": v},
			Rule:    "one_of",
		}}
	}
}

// Range bounds numeric values inclusively. Pass nil to leave an end open.
func Range(min, max *float64) recschema.Rule {
	return func(path string, v any) recschema.Issues {
		f, ok := asFloat(v)
		if !ok {
			return nil // type errors are the field's concern
		}
		if min != nil && f < *min {
			return recschema.Issues{{
				Path:    path,
				Code:    recschema.CodeTooSmall,
				Message: i18n.T(recschema.CodeTooSmall, nil),
				Params:  map[string]any{"min": *min, "got": f},
				Rule:    "range",
			}}
		}
		if max != nil && f > *max {
			return recschema.Issues{{
				Path:    path,
				Code:    recschema.CodeTooBig,
				Message: i18n.T(recschema.CodeTooBig, nil),
				Params:  map[string]any{"max": *max, "got": f},
				Rule:    "range",
			}}
		}
		return nil
	}
}

// Length bounds the length of strings, slices and maps inclusively. Pass a
// negative bound to leave that end open.
func Length(min, max int) recschema.Rule {
	return func(path string, v any) recschema.Issues {
		n, ok := lengthOf(v)
		if !ok {
			return nil
		}
		if min >= 0 && n < min {
			return recschema.Issues{{
				Path:    path,
				Code:    recschema.CodeTooShort,
				Message: i18n.T(recschema.CodeTooShort, nil),
				Params:  map[string]any{"min": min, "got": n},
				Rule:    "length",
			}}
		}
		if max >= 0 && n > max {
			return recschema.Issues{{
				Path:    path,
				Code:    recschema.CodeTooLong,
				Message: i18n.T(recschema.CodeTooLong, nil),
				Params:  map[string]any{"max": max, "got": n},
				Rule:    "length",
			}}
		}
		return nil
	}
}

// Regexp accepts strings matching the pattern. The pattern is compiled once
// at rule construction; an invalid pattern panics, matching the declare-time
// failure mode of the rest of the declaration API.
func Regexp(pattern string) recschema.Rule {
	re := regexp.MustCompile(pattern)
	return func(path string, v any) recschema.Issues {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		if re.MatchString(s) {
			return nil
		}
		return recschema.Issues{{
			Path:    path,
			Code:    recschema.CodePattern,
			Message: i18n.T(recschema.CodePattern, nil),
			Params:  map[string]any{"pattern": pattern, "got": s},
			Rule:    "regexp",
		}}
	}
}

// Email accepts RFC 5322 addresses.
func Email() recschema.Rule {
	return func(path string, v any) recschema.Issues {
		s, ok := v.(string)
		if ok {
			if _, err := mail.ParseAddress(s); err == nil {
				return nil
			}
		}
		return recschema.Issues{{
			Path:    path,
			Code:    recschema.CodeInvalidFormat,
			Message: i18n.T(recschema.CodeInvalidFormat, map[string]string{"format": "email address"}),
			Params:  map[string]any{"got": v},
			Rule:    "email",
		}}
	}
}

// URL accepts absolute URLs.
func URL() recschema.Rule {
	return func(path string, v any) recschema.Issues {
		s, ok := v.(string)
		if ok {
			if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
				return nil
			}
		}
		return recschema.Issues{{
			Path:    path,
			Code:    recschema.CodeInvalidFormat,
			Message: i18n.T(recschema.CodeInvalidFormat, map[string]string{"format": "URL"}),
			Params:  map[string]any{"got": v},
			Rule:    "url",
		}}
	}
}

func looseEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return aok && bok && af == bf
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func lengthOf(v any) (int, bool) {
	switch s := v.(type) {
	case string:
		return len(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}
