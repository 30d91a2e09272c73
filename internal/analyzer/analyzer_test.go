package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSkillsKeepsCategoryAndKeyword(t *testing.T) {
	a := New(nil)

	skills := a.ExtractSkills("Senior React developer with Node.js and Git")

	assert.Equal(t, []string{"javascript", "js", "react", "node.js", "version-control", "git"}, skills)
}

func TestExtractSkillsIsDeterministicAndFromDictionary(t *testing.T) {
	dict := DefaultDictionary()
	a := New(dict)
	text := "Python/Django backend, PostgreSQL, Docker and Kubernetes on AWS. Some React on the side."

	first := a.ExtractSkills(text)
	second := a.ExtractSkills(text)
	require.Equal(t, first, second)

	known := map[string]bool{}
	for _, c := range dict.Skills {
		known[c.Name] = true
		for _, k := range c.Keywords {
			known[k] = true
		}
	}
	for _, s := range first {
		assert.True(t, known[s], "unexpected skill %q", s)
	}
}

func TestExtractSkillsEmptyText(t *testing.T) {
	assert.Empty(t, New(nil).ExtractSkills(""))
}

func TestExtractJobTitlesAndIndustries(t *testing.T) {
	a := New(nil)

	assert.Equal(t, []string{"developer", "backend"}, a.ExtractJobTitles("Backend Developer"))
	assert.Equal(t, []string{"finance"}, a.ExtractIndustries("We work for a bank"))
	assert.Equal(t, []string{"technology", "finance"}, a.ExtractIndustries("Fintech"))
	assert.Empty(t, a.ExtractIndustries(""))
}

func TestDetermineExperienceLevel(t *testing.T) {
	a := New(nil)

	tests := []struct {
		name string
		text string
		want Level
	}{
		{name: "senior", text: "Senior engineer, principal architect", want: LevelSenior},
		{name: "executive", text: "Director and VP of engineering", want: LevelExecutive},
		{name: "junior", text: "Junior graduate looking for an internship", want: LevelJunior},
		{name: "tie", text: "junior and senior", want: LevelMid},
		{name: "empty", text: "", want: LevelMid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.DetermineExperienceLevel(tt.text))
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	a := New(nil)

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "french", text: "Nous recherchons un développeur pour notre équipe avec une expérience", want: LanguageFrench},
		{name: "spanish", text: "Buscamos un desarrollador para el puesto con experiencia", want: LanguageSpanish},
		{name: "german", text: "Wir suchen einen Entwickler mit Erfahrung und Leidenschaft", want: LanguageGerman},
		{name: "english", text: "We are looking for a developer with Go experience", want: LanguageEnglish},
		{name: "tie prefers french", text: "el le", want: LanguageFrench},
		{name: "no indicators", text: "", want: LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.DetectLanguage(tt.text))
		})
	}
}

func TestExtractEducationAndLanguages(t *testing.T) {
	a := New(nil)

	assert.Equal(t, []string{"master", "university"}, a.ExtractEducation("Master of Science, Lyon University"))
	assert.Equal(t, []string{"english", "french"}, a.ExtractLanguages("Languages: French (native), English (C1)"))
}

func TestCalculateCVScore(t *testing.T) {
	assert.Equal(t, 60, CalculateCVScore(nil, LevelMid, nil, nil))
	assert.Equal(t, 55, CalculateCVScore(nil, LevelJunior, nil, nil))
	assert.Equal(t, 50, CalculateCVScore(nil, "", nil, nil))

	many := make([]string, 20)
	assert.Equal(t, 100, CalculateCVScore(many, LevelSenior, many, many))
}

func TestCalculateCVScoreMonotoneInSkills(t *testing.T) {
	prev := -1
	for n := 0; n <= 20; n++ {
		score := CalculateCVScore(make([]string, n), LevelMid, []string{"developer"}, nil)
		assert.GreaterOrEqual(t, score, prev, "skills=%d", n)
		prev = score
	}
	assert.Equal(t, 50+30+10+2, prev)
}

func TestAnalyzeCV(t *testing.T) {
	a := New(nil)
	text := "Senior backend developer. Golang, PostgreSQL, Docker. Master degree. English and French."

	cv := a.AnalyzeCV(text)

	assert.Equal(t, LevelSenior, cv.ExperienceLevel)
	assert.Contains(t, cv.Skills, "golang")
	assert.Contains(t, cv.Skills, "docker")
	assert.Equal(t, CalculateCVScore(cv.Skills, cv.ExperienceLevel, cv.JobTitles, cv.Education), cv.Score)
	assert.Contains(t, cv.Strengths, "Senior-level experience")
	assert.Contains(t, cv.Strengths, "Multilingual profile")
	assert.Contains(t, cv.Improvements, "Expand the CV with measurable achievements")
	assert.NotEmpty(t, cv.Summary)
}

func TestLoadDictionaryFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	content := `skills:
  - name: golang
    keywords: [golang, goroutine]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	dict, err := LoadDictionary(path)
	require.NoError(t, err)

	a := New(dict)
	assert.Equal(t, []string{"golang", "goroutine"}, a.ExtractSkills("goroutine pools and react"))
	assert.Equal(t, []string{"developer", "backend"}, a.ExtractJobTitles("Backend Developer"))
}

func TestLoadDictionaryMissingFile(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
