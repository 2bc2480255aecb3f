package fifa

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// localized is one translation of an upstream text field.
type localized struct {
	Locale      string `json:"Locale"`
	Description string `json:"Description"`
}

// pick returns the description for locale, falling back to the first entry.
func pick(texts []localized, locale string) string {
	if len(texts) == 0 {
		return ""
	}
	for _, t := range texts {
		if strings.EqualFold(t.Locale, locale) {
			return plainText(t.Description)
		}
	}
	// Locales are sometimes returned without region ("en" for "en-US").
	lang, _, _ := strings.Cut(locale, "-")
	for _, t := range texts {
		if strings.EqualFold(t.Locale, lang) {
			return plainText(t.Description)
		}
	}
	return plainText(texts[0].Description)
}

// plainText strips markup and entities that the API leaves in some
// descriptions.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
