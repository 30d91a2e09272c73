package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/jobhackr/internal/analyzer"
	"github.com/spigell/jobhackr/internal/matching"
)

var ErrSalaryRange = errors.New("salary min is greater than salary max")

// languageAliases maps language names found in CVs to the labels used by
// the language detector.
var languageAliases = map[string]string{
	"français": analyzer.LanguageFrench,
	"anglais":  analyzer.LanguageEnglish,
	"español":  analyzer.LanguageSpanish,
	"deutsch":  analyzer.LanguageGerman,
}

// Config is the candidate bundle as it appears in the config file.
type Config struct {
	UserID      string      `mapstructure:"user-id" validate:"required"`
	Name        string      `mapstructure:"name"`
	Tier        string      `mapstructure:"tier" validate:"omitempty,oneof=free pro premium"`
	CVFile      string      `mapstructure:"cv-file"`
	Criteria    Criteria    `mapstructure:"criteria"`
	Preferences Preferences `mapstructure:"preferences"`
}

type Criteria struct {
	Titles            []string `mapstructure:"titles" validate:"required,min=1,dive,required"`
	Locations         []string `mapstructure:"locations" validate:"dive,required"`
	Remote            string   `mapstructure:"remote" validate:"omitempty,oneof=remote-only hybrid onsite flexible"`
	Relocate          bool     `mapstructure:"relocate"`
	ExperienceLevel   string   `mapstructure:"experience-level" validate:"omitempty,oneof=entry junior mid senior lead executive"`
	YearsOfExperience int      `mapstructure:"years-of-experience" validate:"gte=0,lte=60"`
	Skills            []string `mapstructure:"skills" validate:"dive,required"`
	Industries        []string `mapstructure:"industries" validate:"dive,required"`
	SalaryMin         *int     `mapstructure:"salary-min" validate:"omitempty,gte=0"`
	SalaryMax         *int     `mapstructure:"salary-max" validate:"omitempty,gte=0"`
}

type Preferences struct {
	SpokenLanguages     []string `mapstructure:"spoken-languages" validate:"dive,required"`
	ExcludedCompanies   []string `mapstructure:"excluded-companies"`
	PriorityCompanies   []string `mapstructure:"priority-companies"`
	MinMatchScore       int      `mapstructure:"min-match-score" validate:"gte=0,lte=100"`
	DailyApplicationCap int      `mapstructure:"daily-application-cap" validate:"gte=0"`
	Aggressive          bool     `mapstructure:"aggressive"`
	BestTitleMatch      bool     `mapstructure:"best-title-match"`
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Criteria.SalaryMin != nil && c.Criteria.SalaryMax != nil && *c.Criteria.SalaryMin > *c.Criteria.SalaryMax {
		return ErrSalaryRange
	}
	return nil
}

// Build merges the configured criteria with what the analyzer finds in the CV.
// Configured values come first; CV findings only add to them. The returned
// analysis is nil when cvText is blank.
func Build(cfg *Config, a *analyzer.Analyzer, cvText string) (*matching.Profile, *analyzer.CVAnalysis, error) {
	if cfg == nil {
		return nil, nil, matching.ErrNoProfile
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate profile %q: %w", cfg.UserID, err)
	}
	if a == nil {
		a = analyzer.New(nil)
	}

	var cv *analyzer.CVAnalysis
	if strings.TrimSpace(cvText) != "" {
		cv = a.AnalyzeCV(cvText)
	}

	p := &matching.Profile{
		UserID:              cfg.UserID,
		Titles:              trimmed(cfg.Criteria.Titles),
		Locations:           trimmed(cfg.Criteria.Locations),
		RemotePreference:    cfg.Criteria.Remote,
		WillingToRelocate:   cfg.Criteria.Relocate,
		ExperienceLevel:     cfg.Criteria.ExperienceLevel,
		YearsOfExperience:   cfg.Criteria.YearsOfExperience,
		Skills:              union(cfg.Criteria.Skills),
		Industries:          union(cfg.Criteria.Industries),
		SpokenLanguages:     union(cfg.Preferences.SpokenLanguages),
		Salary:              matching.SalaryRange{Min: cfg.Criteria.SalaryMin, Max: cfg.Criteria.SalaryMax},
		ExcludedCompanies:   cfg.Preferences.ExcludedCompanies,
		PriorityCompanies:   cfg.Preferences.PriorityCompanies,
		MinMatchScore:       cfg.Preferences.MinMatchScore,
		DailyApplicationCap: cfg.Preferences.DailyApplicationCap,
		Aggressive:          cfg.Preferences.Aggressive,
	}
	if p.RemotePreference == "" {
		p.RemotePreference = matching.RemoteFlexible
	}

	if cv != nil {
		p.Skills = union(p.Skills, cv.Skills)
		p.Industries = union(p.Industries, cv.Industries)
		if len(p.SpokenLanguages) == 0 {
			p.SpokenLanguages = union(canonicalLanguages(cv.Languages))
		}
		if p.ExperienceLevel == "" && p.YearsOfExperience == 0 {
			p.ExperienceLevel = string(cv.ExperienceLevel)
		}
	}

	if len(p.SpokenLanguages) == 0 {
		p.SpokenLanguages = []string{analyzer.LanguageEnglish}
	}

	return p, cv, nil
}

func canonicalLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if alias, ok := languageAliases[l]; ok {
			l = alias
		}
		out = append(out, l)
	}
	return out
}

// union lowercases, trims and deduplicates values keeping first-seen order.
func union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
