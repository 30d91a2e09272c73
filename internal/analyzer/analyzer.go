// Package analyzer turns free text (CVs, job descriptions) into structured
// signals using static keyword dictionaries.
package analyzer

import (
	"strings"
	"unicode"
)

// Analyzer extracts skills, titles, industries and other markers from text.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	dict *Dictionary
}

// New returns an Analyzer over dict. A nil dict uses DefaultDictionary.
func New(dict *Dictionary) *Analyzer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Analyzer{dict: dict}
}

// ExtractSkills returns canonical skill categories and the specific keywords
// found in text. Both are kept, deduplicated, in dictionary order.
func (a *Analyzer) ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	result := make([]string, 0)

	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	for _, category := range a.dict.Skills {
		var matched []string
		for _, keyword := range category.Keywords {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				matched = append(matched, keyword)
			}
		}
		if len(matched) == 0 {
			continue
		}
		add(category.Name)
		for _, m := range matched {
			add(m)
		}
	}

	return result
}

// ExtractJobTitles returns the job title categories mentioned in text.
func (a *Analyzer) ExtractJobTitles(text string) []string {
	return matchCategories(text, a.dict.JobTitles)
}

// ExtractIndustries returns the industry categories mentioned in text.
func (a *Analyzer) ExtractIndustries(text string) []string {
	return matchCategories(text, a.dict.Industries)
}

// DetermineExperienceLevel picks the bucket with the most keyword hits.
// Ties and texts without any hit are classified as mid.
func (a *Analyzer) DetermineExperienceLevel(text string) Level {
	lower := strings.ToLower(text)

	best := LevelMid
	bestHits := 0
	tie := false

	for _, level := range Levels {
		hits := 0
		for _, keyword := range a.dict.Experience[level] {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				hits++
			}
		}
		switch {
		case hits > bestHits:
			best, bestHits, tie = level, hits, false
		case hits == bestHits && hits > 0:
			tie = true
		}
	}

	if bestHits == 0 || tie {
		return LevelMid
	}
	return best
}

// ExtractEducation lists education markers present in text.
func (a *Analyzer) ExtractEducation(text string) []string {
	return matchKeywords(text, a.dict.Education)
}

// ExtractLanguages lists spoken language names present in text.
func (a *Analyzer) ExtractLanguages(text string) []string {
	return matchKeywords(text, a.dict.Languages)
}

// DetectLanguage guesses the language text is written in by counting
// indicator words. Ties go to french, then spanish, then german; text with no
// indicator at all is english.
func (a *Analyzer) DetectLanguage(text string) string {
	counts := make(map[string]int, len(languagePriority))
	sets := make(map[string]map[string]bool, len(a.dict.LanguageIndicators))
	for lang, words := range a.dict.LanguageIndicators {
		set := make(map[string]bool, len(words))
		for _, w := range words {
			set[strings.ToLower(w)] = true
		}
		sets[lang] = set
	}

	for _, token := range tokenize(text) {
		for lang, set := range sets {
			if set[token] {
				counts[lang]++
			}
		}
	}

	best := LanguageEnglish
	bestCount := 0
	for _, lang := range languagePriority {
		if counts[lang] > bestCount {
			best, bestCount = lang, counts[lang]
		}
	}
	return best
}

func matchCategories(text string, categories []Category) []string {
	lower := strings.ToLower(text)
	result := make([]string, 0)
	for _, category := range categories {
		for _, keyword := range category.Keywords {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				result = append(result, category.Name)
				break
			}
		}
	}
	return result
}

func matchKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	result := make([]string, 0)
	for _, keyword := range keywords {
		k := strings.ToLower(keyword)
		if k == "" || seen[k] {
			continue
		}
		if strings.Contains(lower, k) {
			seen[k] = true
			result = append(result, keyword)
		}
	}
	return result
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
