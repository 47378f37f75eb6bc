package i18n

// Translator retrieves localized messages for issue codes. data provides
// optional metadata to embed in the message (for example, "expected" or
// "want").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須フィールドがありません"
		case "null_not_allowed":
			return "null は許可されていません"
		case "unknown_key":
			return "未知のキーです"
		case "duplicate_item":
			return "要素が重複しています"
		case "invalid_enum", "invalid_choice":
			return "許可された値ではありません"
		case "union_no_match":
			return "どの候補型にも一致しません"
		case "parse_error":
			return "解析エラー"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			if e := data["expected"]; e != "" {
				return "Not a valid " + e + "."
			}
			return "Invalid input type."
		case "required":
			return "Missing data for required field."
		case "null_not_allowed":
			return "Field may not be null."
		case "unknown_key":
			return "Unknown field."
		case "duplicate_item":
			return "Duplicate entry."
		case "not_equal":
			if w := data["want"]; w != "" {
				return "Must be equal to " + w + "."
			}
			return "Not equal to expected value."
		case "invalid_choice", "invalid_enum":
			if c := data["choices"]; c != "" {
				return "Must be one of: " + c + "."
			}
			return "Not a valid choice."
		case "invalid_format":
			if f := data["format"]; f != "" {
				return "Not a valid " + f + "."
			}
			return "Invalid format."
		case "pattern":
			return "String does not match expected pattern."
		case "too_short":
			return "Shorter than minimum length."
		case "too_long":
			return "Longer than maximum length."
		case "too_small":
			return "Must be greater than or equal to the minimum."
		case "too_big":
			return "Must be less than or equal to the maximum."
		case "union_no_match":
			return "No union alternative matched the value."
		case "parse_error":
			return "Parse error."
		}
	}
	return code
}

var active Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in dictionary to the given language.
// Unknown languages fall back to English.
func SetLanguage(lang string) { active = dictTranslator{lang: lang} }

// SetTranslator installs a custom Translator.
func SetTranslator(tr Translator) {
	if tr != nil {
		active = tr
	}
}

// T translates an issue code through the active Translator.
func T(code string, data map[string]string) string {
	return active.Message(code, data)
}
