package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DisplayName returns the English name of a language code, e.g. "Hindi" for
// "hi". Unparseable codes are returned unchanged.
func DisplayName(code string) string {
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return code
	}

	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// DisplayNames joins the names of all codes in s, e.g. "Hindi or English".
func (s Set) DisplayNames(conjunction string) string {
	names := make([]string, 0, len(s.codes))
	for _, code := range s.codes {
		names = append(names, DisplayName(code))
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " " + conjunction + " " + names[len(names)-1]
	}
}

// Primary reduces a BCP-47 tag to its primary language subtag, e.g. "hi-IN"
// becomes "hi". Empty input stays empty.
func Primary(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
