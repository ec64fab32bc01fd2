package insights

import (
	"strings"
	"unicode"
)

// Sections maps a markdown heading (without the leading #'s) to the trimmed
// text under it. A heading that never appears has no key.
type Sections map[string]string

// ParseSections splits markdown into heading/body pairs. Any line whose
// first non-space character is '#' starts a section; its body runs to the
// next heading. Text before the first heading is dropped, and a repeated
// heading keeps its last body.
func ParseSections(markdown string) Sections {
	out := Sections{}

	var (
		title string
		body  []string
		open  bool
	)
	flush := func() {
		if open && title != "" {
			out[title] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			title = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			body = body[:0]
			open = true
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	flush()
	return out
}

// Lookup finds a section by name, ignoring case and any leading emoji or
// punctuation in the heading ("📊 Spending Patterns" matches "Spending
// Patterns"). Missing sections yield "".
func (s Sections) Lookup(name string) string {
	if body, ok := s[name]; ok {
		return body
	}
	want := normalizeHeading(name)
	for title, body := range s {
		if normalizeHeading(title) == want {
			return body
		}
	}
	return ""
}

func normalizeHeading(h string) string {
	h = strings.TrimLeftFunc(h, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(strings.TrimSpace(h))
}
