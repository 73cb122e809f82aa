// Package extract recovers structured records from free-text completions.
//
// Every function here is total: a completion that matches nothing yields an
// empty result, never an error.
package extract

import (
	"strings"
	"studykit/internal/utils"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

const matchTimeout = 2 * time.Second

var patternCache sync.Map

// compile caches patterns built from output schemas.
func compile(pattern string, opts regexp2.RegexOptions) *regexp2.Regexp {
	type cacheKey struct {
		pattern string
		opts    regexp2.RegexOptions
	}
	k := cacheKey{pattern: pattern, opts: opts}

	if re, ok := patternCache.Load(k); ok {
		return re.(*regexp2.Regexp)
	}

	re := regexp2.MustCompile(pattern, opts)
	re.MatchTimeout = matchTimeout
	patternCache.Store(k, re)
	return re
}

// findAll returns the groups of every match. A match timeout ends the scan
// and keeps what was found so far.
func findAll(re *regexp2.Regexp, text string) [][]string {
	var out [][]string

	m, err := re.FindStringMatch(text)
	for err == nil && m != nil {
		groups := m.Groups()
		row := make([]string, len(groups))
		for i, g := range groups {
			row[i] = g.String()
		}
		out = append(out, row)
		m, err = re.FindNextMatch(m)
	}

	return out
}

func findFirst(re *regexp2.Regexp, text string) ([]string, bool) {
	m, err := re.FindStringMatch(text)
	if err != nil || m == nil {
		return nil, false
	}

	groups := m.Groups()
	row := make([]string, len(groups))
	for i, g := range groups {
		row[i] = g.String()
	}
	return row, true
}

// splitBy cuts text at every match of re.
func splitBy(re *regexp2.Regexp, text string) []string {
	var parts []string
	last := 0

	m, err := re.FindStringMatch(text)
	for err == nil && m != nil {
		parts = append(parts, text[last:runeOffset(text, m.Index)])
		last = runeOffset(text, m.Index+m.Length)
		m, err = re.FindNextMatch(m)
	}

	return append(parts, text[last:])
}

// runeOffset converts a regexp2 rune index into a byte offset.
func runeOffset(text string, runeIndex int) int {
	i := 0
	for offset := range text {
		if i == runeIndex {
			return offset
		}
		i++
	}
	return len(text)
}

var observationPattern = compile(`Observation:[ \t]*(.*?)(?=Thought:|$)`, regexp2.Singleline)

// ObservationSegments returns the bodies of every "Observation:" block of an
// agent trace. A block ends at the next "Thought:" or at the end of the text.
func ObservationSegments(raw string) []string {
	var segments []string
	for _, row := range findAll(observationPattern, raw) {
		if s := strings.TrimSpace(row[1]); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// scopes lists the texts a pattern runs over: observation segments first,
// then the whole output.
func scopes(raw string) [][]string {
	segments := ObservationSegments(raw)
	if len(segments) == 0 {
		return [][]string{{raw}}
	}
	return [][]string{segments, {raw}}
}

// candidates puts the requested format first and the other one second, so a
// misclassified request still finds records written in the other language.
func candidates(l utils.Language) []utils.Language {
	if l == utils.Arabic {
		return []utils.Language{utils.Arabic, utils.English}
	}
	return []utils.Language{utils.English, utils.Arabic}
}

func labelPattern(labels []string) string {
	escaped := make([]string, len(labels))
	for i, l := range labels {
		escaped[i] = regexp2.Escape(l)
	}
	if len(escaped) == 1 {
		return escaped[0]
	}
	return "(?:" + strings.Join(escaped, "|") + ")"
}
