package i18n

import "testing"

func TestEnglishMessages(t *testing.T) {
	SetLanguage("en")
	cases := []struct {
		code string
		data map[string]string
		want string
	}{
		{"required", nil, "Missing data for required field."},
		{"null_not_allowed", nil, "Field may not be null."},
		{"invalid_type", map[string]string{"expected": "string"}, "Not a valid string."},
		{"invalid_type", nil, "Invalid input type."},
		{"not_equal", map[string]string{"want": "active"}, "Must be equal to active."},
		{"invalid_choice", map[string]string{"choices": "a, b"}, "Must be one of: a, b."},
		{"union_no_match", nil, "No union alternative matched the value."},
		{"unknown_key", nil, "Unknown field."},
	}
	for _, tc := range cases {
		if got := T(tc.code, tc.data); got != tc.want {
			t.Errorf("T(%q, %v) = %q, want %q", tc.code, tc.data, got, tc.want)
		}
	}
}

func TestUnknownCodePassesThrough(t *testing.T) {
	SetLanguage("en")
	if got := T("some_custom_code", nil); got != "some_custom_code" {
		t.Fatalf("T = %q", got)
	}
}

func TestLanguageSwitch(t *testing.T) {
	SetLanguage("ja")
	defer SetLanguage("en")
	if got := T("required", nil); got != "必須フィールドがありません" {
		t.Fatalf("T(required) = %q", got)
	}
}

type upperTranslator struct{}

func (upperTranslator) Message(code string, _ map[string]string) string { return "<" + code + ">" }

func TestCustomTranslator(t *testing.T) {
	SetTranslator(upperTranslator{})
	defer SetLanguage("en")
	if got := T("required", nil); got != "<required>" {
		t.Fatalf("T = %q", got)
	}
	// nil installs nothing
	SetTranslator(nil)
	if got := T("required", nil); got != "<required>" {
		t.Fatalf("nil translator must be ignored, got %q", got)
	}
}
