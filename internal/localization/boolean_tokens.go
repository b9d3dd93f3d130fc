package localization

import "strings"

// booleanTokenData maps language codes to the words learners type for
// true and false. "1" and "0" are added to every language at load time.
var booleanTokenData = map[string]map[string]bool{
	"en": {"true": true, "false": false, "yes": true, "no": false, "t": true, "f": false, "y": true, "n": false, "correct": true, "incorrect": false},
	"fr": {"vrai": true, "faux": false, "oui": true, "non": false},
	"es": {"verdadero": true, "falso": false, "sí": true, "si": true, "no": false},
	"pt": {"verdadeiro": true, "falso": false, "sim": true, "não": false, "nao": false},
	"it": {"vero": true, "falso": false, "sì": true, "si": true, "no": false},
	"de": {"wahr": true, "falsch": false, "ja": true, "nein": false, "richtig": true},
	"nl": {"waar": true, "onwaar": false, "ja": true, "nee": false},
	"sv": {"sant": true, "falskt": false, "ja": true, "nej": false},
	"pl": {"prawda": true, "fałsz": false, "tak": true, "nie": false},
	"tr": {"doğru": true, "yanlış": false, "evet": true, "hayır": false},
	"ru": {"правда": true, "ложь": false, "да": true, "нет": false, "верно": true, "неверно": false},
	"uk": {"правда": true, "неправда": false, "так": true, "ні": false},
	"el": {"σωστό": true, "λάθος": false, "ναι": true, "όχι": false},
	"ar": {"صحيح": true, "خطأ": false, "نعم": true, "لا": false},
	"he": {"נכון": true, "לא נכון": false, "כן": true, "לא": false},
	"hi": {"सही": true, "गलत": false, "हाँ": true, "हां": true, "नहीं": false},
	"ja": {"はい": true, "いいえ": false, "ja": true, "正しい": true, "間違い": false, "真": true, "偽": false},
	"zh": {"是": true, "否": false, "对": true, "错": false, "正确": true, "错误": false, "真": true, "假": false},
	"ko": {"예": true, "아니오": false, "네": true, "아니요": false, "참": true, "거짓": false},
	"id": {"benar": true, "salah": false, "ya": true, "tidak": false},
	"vi": {"đúng": true, "sai": false, "có": true, "không": false},
	"th": {"จริง": true, "เท็จ": false, "ใช่": true, "ไม่ใช่": false},
}

// BooleanTokens parses localized true/false answers. It is built once and
// shared read-only.
type BooleanTokens struct {
	byLanguage map[string]map[string]bool
}

func NewBooleanTokens() *BooleanTokens {
	tables := make(map[string]map[string]bool, len(booleanTokenData))
	for lang, tokens := range booleanTokenData {
		table := make(map[string]bool, len(tokens)+2)
		for token, value := range tokens {
			table[strings.ToLower(token)] = value
		}
		table["1"] = true
		table["0"] = false
		tables[lang] = table
	}
	return &BooleanTokens{byLanguage: tables}
}

// Parse resolves a token in the given language, then in English.
func (b *BooleanTokens) Parse(token, language string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	normalized = strings.Trim(normalized, ".!?。！")
	if normalized == "" {
		return false, false
	}

	for _, candidate := range append(Candidates(language), DefaultLanguage) {
		if table, ok := b.byLanguage[candidate]; ok {
			if value, ok := table[normalized]; ok {
				return value, true
			}
		}
	}
	return false, false
}

// Languages returns every language with a token table.
func (b *BooleanTokens) Languages() []string {
	langs := make([]string, 0, len(b.byLanguage))
	for lang := range b.byLanguage {
		langs = append(langs, lang)
	}
	return langs
}
