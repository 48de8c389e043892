package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var languageNames = map[string]string{
	"":      "中文",
	"zh":    "中文",
	"en":    "English",
	"zh-tw": "繁中",
	"zh-cn": "簡中",
	"ja":    "日本語",
	"es":    "Español",
	"fr":    "Français",
	"de":    "Deutsch",
}

// LanguageName returns the button label for a statement language code.
// Unknown codes use the language's own name, then the upper-cased code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	if tag, err := language.Parse(code); err == nil {
		if name := display.Self.Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(code)
}
