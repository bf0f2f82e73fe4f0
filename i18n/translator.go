package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "schema_error":
			return "スキーマが不正です"
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "unknown_key":
			return "未知のキーです"
		case "invalid_enum":
			return "列挙値が不正です"
		case "value_constraint":
			return "値の制約に違反しています"
		case "discriminator_missing":
			return "型タグが不足しています"
		case "discriminator_unknown":
			return "未知の型タグです"
		case "reserved_key_collision":
			return "予約キーと衝突しています"
		case "encode_forbidden":
			return "エンコードできない状態です"
		case "max_depth":
			return "ネストが深すぎます"
		case "parse_error":
			return "解析エラー"
		}
	default: // "en"
		switch code {
		case "schema_error":
			return "invalid schema"
		case "invalid_type":
			return "invalid type"
		case "required":
			return "required property missing"
		case "unknown_key":
			return "unknown key"
		case "invalid_enum":
			return "invalid enum value"
		case "value_constraint":
			return "value constraint violated"
		case "discriminator_missing":
			return "type tag missing"
		case "discriminator_unknown":
			return "unknown type tag"
		case "reserved_key_collision":
			return "reserved key collision"
		case "encode_forbidden":
			return "instance cannot be encoded"
		case "max_depth":
			return "nesting too deep"
		case "parse_error":
			return "parse error"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
