package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// DefaultLanguage is the fallback for missing languages and keys.
const DefaultLanguage = "en"

//go:embed locales/*.json
var localeFS embed.FS

// Localizer resolves a message key for a language.
type Localizer interface {
	GetString(key, language string, placeholders map[string]any) string
}

// Catalog is an immutable set of message tables keyed by language.
type Catalog struct {
	messages map[string]map[string]string
}

// LoadCatalog reads every embedded locale file.
func LoadCatalog() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	messages := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", entry.Name(), err)
		}
		var table map[string]string
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", entry.Name(), err)
		}
		messages[strings.TrimSuffix(entry.Name(), ".json")] = table
	}

	if _, ok := messages[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default locale %q is missing", DefaultLanguage)
	}
	return &Catalog{messages: messages}, nil
}

// NewCatalog builds a catalog from in-memory tables.
func NewCatalog(messages map[string]map[string]string) *Catalog {
	return &Catalog{messages: messages}
}

// MustLoadCatalog is LoadCatalog for process start-up.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// GetString falls back to English, then to the raw key.
func (c *Catalog) GetString(key, language string, placeholders map[string]any) string {
	msg, ok := c.lookup(key, language)
	if !ok {
		msg, ok = c.lookup(key, DefaultLanguage)
	}
	if !ok {
		msg = key
	}
	return substitute(msg, placeholders)
}

// Languages returns the language codes the catalog carries.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	return langs
}

func (c *Catalog) lookup(key, language string) (string, bool) {
	for _, candidate := range Candidates(language) {
		if table, ok := c.messages[candidate]; ok {
			if msg, ok := table[key]; ok {
				return msg, true
			}
		}
	}
	return "", false
}

// Candidates returns the lookup order for a language tag, e.g. "pt-BR"
// yields "pt-br" then "pt".
func Candidates(language string) []string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		return nil
	}
	lang = strings.ReplaceAll(lang, "_", "-")
	if base, _, found := strings.Cut(lang, "-"); found {
		return []string{lang, base}
	}
	return []string{lang}
}

func substitute(msg string, placeholders map[string]any) string {
	if len(placeholders) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(placeholders)*2)
	for k, v := range placeholders {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
