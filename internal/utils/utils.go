package utils

import (
	"strings"
)

// Slugify lower-cases text and collapses every run of non-alphanumeric
// runes into a single hyphen, trimming hyphens at both ends.
func Slugify(text string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(text) {
		if isWordRune(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}

// StripCodeFences removes markdown fence markers, keeping the fenced content.
func StripCodeFences(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, "```") && !strings.HasPrefix(trimmed, "```") {
			line = strings.TrimSuffix(trimmed, "```")
			trimmed = strings.TrimSpace(line)
		}
		if !strings.HasPrefix(trimmed, "```") {
			out = append(out, line)
			continue
		}

		rest := strings.TrimSpace(strings.Trim(trimmed, "`"))
		if rest == "" || isFenceLanguage(rest) {
			continue
		}
		// ```mermaid graph LR on one line keeps the body
		if idx := strings.IndexAny(rest, " \t"); idx != -1 && isFenceLanguage(rest[:idx]) {
			rest = strings.TrimSpace(rest[idx:])
		}
		out = append(out, rest)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isFenceLanguage(word string) bool {
	switch strings.ToLower(word) {
	case "mermaid", "text", "markdown", "md":
		return true
	default:
		return false
	}
}

func GetLanguageName(l Language) string {
	names := map[Language]string{
		Arabic:   "Arabic",
		English:  "English",
		French:   "French",
		Spanish:  "Spanish",
		German:   "German",
		Chinese:  "Chinese",
		Russian:  "Russian",
		Japanese: "Japanese",
		Hindi:    "Hindi",
		Urdu:     "Urdu",
		Farsi:    "Persian",
		Turkish:  "Turkish",
	}

	if name, ok := names[l]; ok {
		return name
	}
	return "English"
}
