package utils

import (
	"github.com/pemistahl/lingua-go"
	"strings"
	"sync"
	"unicode"
)

type Language string

const (
	Arabic   Language = "arabic"
	English  Language = "english"
	French   Language = "french"
	Spanish  Language = "spanish"
	German   Language = "german"
	Chinese  Language = "chinese"
	Russian  Language = "russian"
	Japanese Language = "japanese"
	Hindi    Language = "hindi"
	Urdu     Language = "urdu"
	Farsi    Language = "farsi"
	Turkish  Language = "turkish"
)

// DefaultLanguage is returned whenever detection is not possible.
const DefaultLanguage = English

var linguaLanguages = map[Language]lingua.Language{
	Arabic:   lingua.Arabic,
	English:  lingua.English,
	French:   lingua.French,
	Spanish:  lingua.Spanish,
	German:   lingua.German,
	Chinese:  lingua.Chinese,
	Russian:  lingua.Russian,
	Japanese: lingua.Japanese,
	Hindi:    lingua.Hindi,
	Urdu:     lingua.Urdu,
	Farsi:    lingua.Persian,
	Turkish:  lingua.Turkish,
}

// BilingualLanguages is the set the generation endpoints work with.
var BilingualLanguages = []Language{Arabic, English}

// ExtendedLanguages is the set used for summaries.
var ExtendedLanguages = []Language{
	Arabic, English, French, Spanish, German, Chinese,
	Russian, Japanese, Hindi, Urdu, Farsi, Turkish,
}

// Detector classifies text into one of a fixed set of languages.
type Detector struct {
	detector lingua.LanguageDetector
	known    map[lingua.Language]Language
}

// NewDetector builds a detector restricted to the given languages.
// Fewer than two usable languages falls back to the bilingual set.
func NewDetector(languages ...Language) *Detector {
	known := make(map[lingua.Language]Language, len(languages))
	for _, l := range languages {
		if ll, ok := linguaLanguages[l]; ok {
			known[ll] = l
		}
	}

	if len(known) < 2 {
		known = map[lingua.Language]Language{lingua.Arabic: Arabic, lingua.English: English}
	}

	set := make([]lingua.Language, 0, len(known))
	for ll := range known {
		set = append(set, ll)
	}

	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(set...).Build(),
		known:    known,
	}
}

// Classify never fails: empty input or an undetectable language yields English.
func (d *Detector) Classify(text string) Language {
	if strings.TrimSpace(text) == "" || d == nil || d.detector == nil {
		return DefaultLanguage
	}

	detected, exists := d.detector.DetectLanguageOf(text)
	if !exists {
		return DefaultLanguage
	}

	if l, ok := d.known[detected]; ok {
		return l
	}

	return DefaultLanguage
}

var (
	bilingualDetector *Detector
	bilingualOnce     sync.Once
)

// DetectLanguage classifies text with a lazily built Arabic/English detector.
func DetectLanguage(text string) Language {
	bilingualOnce.Do(func() {
		bilingualDetector = NewDetector(BilingualLanguages...)
	})
	return bilingualDetector.Classify(text)
}

// ContainsArabic reports whether any rune falls in the Arabic block.
func ContainsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// PreferredLanguage reads an Accept-Language header value.
func PreferredLanguage(acceptLanguage string) Language {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.HasPrefix(strings.ToLower(tag), "ar") {
			return Arabic
		}
	}
	return English
}

// IsRTL reports whether the language is written right to left.
func IsRTL(l Language) bool {
	switch l {
	case Arabic, Urdu, Farsi:
		return true
	default:
		return false
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
