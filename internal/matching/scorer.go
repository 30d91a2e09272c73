// Package matching scores job postings against a candidate profile with a
// fixed additive rubric and decides whether an application should be sent.
package matching

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/analyzer"
	"github.com/spigell/jobhackr/internal/jobs"
)

const (
	languageMatchPoints    = 25
	languageMismatchPoints = -50

	exactTitlePoints   = 20
	partialTitlePoints = 15
	relatedTitlePoints = 10

	locationPoints   = 15
	relocationPoints = 8

	experiencePoints = 15
	skillPoints      = 10
	industryPoints   = 5
	salaryPoints     = 5

	excludedCompanyPoints = -20
	priorityCompanyPoints = 10

	minScore = 0
	maxScore = 100
)

// Reasons that drive the apply decision. Other reasons are informational.
const (
	ReasonLanguageMatch    = "Language match"
	ReasonLanguageMismatch = "Language mismatch"
	ReasonExcludedCompany  = "Excluded company"
	ReasonPriorityCompany  = "Priority company"
)

var (
	ErrNoProfile     = errors.New("candidate profile is required")
	ErrMalformedJobs = errors.New("malformed job list")
)

// Result is the transient outcome of scoring one posting for one profile.
type Result struct {
	Job         *jobs.Posting `json:"job"`
	Score       int           `json:"score"`
	Reasons     []string      `json:"reasons"`
	ShouldApply bool          `json:"should_apply"`
}

type Options struct {
	// BestTitleMatch scores the best of all candidate titles instead of the
	// first one that matches at all.
	BestTitleMatch bool
	// Analyzer detects the language of postings that have none. Defaults to
	// the built-in dictionary.
	Analyzer *analyzer.Analyzer
}

// Scorer is stateless between calls and safe for concurrent use.
type Scorer struct {
	opts     Options
	analyzer *analyzer.Analyzer
	logger   *zap.Logger
}

func NewScorer(opts Options, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := opts.Analyzer
	if a == nil {
		a = analyzer.New(nil)
	}
	return &Scorer{opts: opts, analyzer: a, logger: logger}
}

type card struct {
	score   int
	reasons []string
}

func (c *card) add(points int, reason string) {
	c.score += points
	if reason != "" {
		c.reasons = append(c.reasons, reason)
	}
}

// Score rates job against profile.
func (s *Scorer) Score(job *jobs.Posting, profile *Profile) (*Result, error) {
	if profile == nil {
		return nil, ErrNoProfile
	}
	if job == nil {
		return nil, fmt.Errorf("%w: nil posting", ErrMalformedJobs)
	}

	c := &card{reasons: make([]string, 0, 8)}

	s.scoreLanguage(c, job, profile)
	s.scoreTitle(c, job, profile)
	scoreLocation(c, job, profile)
	scoreExperience(c, job, profile)
	scoreSkills(c, job, profile)
	scoreIndustry(c, job, profile)
	scoreSalary(c, job, profile)
	scoreCompany(c, job, profile)

	result := &Result{
		Job:     job,
		Score:   clamp(c.score),
		Reasons: c.reasons,
	}
	result.ShouldApply = Eligible(result, profile.Threshold())

	s.logger.Debug("job scored",
		zap.String("job_id", job.ID),
		zap.String("title", job.Title),
		zap.Int("raw_score", c.score),
		zap.Int("score", result.Score),
		zap.Bool("should_apply", result.ShouldApply),
	)

	return result, nil
}

// Rank scores every posting and orders results by score, highest first.
// Postings with equal scores keep their input order.
func (s *Scorer) Rank(postings []*jobs.Posting, profile *Profile) ([]*Result, error) {
	if profile == nil {
		return nil, ErrNoProfile
	}

	results := make([]*Result, 0, len(postings))
	for i, job := range postings {
		if job == nil {
			return nil, fmt.Errorf("%w: nil posting at index %d", ErrMalformedJobs, i)
		}
		result, err := s.Score(job, profile)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	slices.SortStableFunc(results, func(a, b *Result) int {
		return b.Score - a.Score
	})

	return results, nil
}

// Eligible reports whether result clears floor and carries no blocking reason.
// A language mismatch or an excluded company blocks regardless of the score.
func Eligible(result *Result, floor int) bool {
	if result == nil || result.Score < floor {
		return false
	}
	return !HasReason(result, ReasonExcludedCompany) && !HasReason(result, ReasonLanguageMismatch)
}

func HasReason(result *Result, reason string) bool {
	return slices.Contains(result.Reasons, reason)
}

func (s *Scorer) scoreLanguage(c *card, job *jobs.Posting, profile *Profile) {
	lang := strings.TrimSpace(job.Language)
	if lang == "" {
		lang = s.analyzer.DetectLanguage(job.Title + " " + job.Description)
	}

	for _, spoken := range profile.SpokenLanguages {
		if strings.EqualFold(strings.TrimSpace(spoken), lang) {
			c.add(languageMatchPoints, ReasonLanguageMatch)
			return
		}
	}
	c.add(languageMismatchPoints, ReasonLanguageMismatch)
}

func (s *Scorer) scoreTitle(c *card, job *jobs.Posting, profile *Profile) {
	jobTitle := lower(job.Title)
	if jobTitle == "" {
		return
	}

	best, bestReason := 0, ""
	for _, title := range profile.Titles {
		points, reason := titlePoints(jobTitle, lower(title))
		if points > best {
			best, bestReason = points, reason
		}
		if points > 0 && !s.opts.BestTitleMatch {
			break
		}
	}
	c.add(best, bestReason)
}

func titlePoints(jobTitle, wanted string) (int, string) {
	switch {
	case wanted == "":
		return 0, ""
	case jobTitle == wanted:
		return exactTitlePoints, "Exact title match: " + wanted
	case strings.Contains(jobTitle, wanted) || strings.Contains(wanted, jobTitle):
		return partialTitlePoints, "Partial title match: " + wanted
	case sharesToken(jobTitle, wanted):
		return relatedTitlePoints, "Related title: " + wanted
	default:
		return 0, ""
	}
}

func scoreLocation(c *card, job *jobs.Posting, profile *Profile) {
	if profile.RemotePreference == RemoteOnly {
		if job.Remote {
			c.add(locationPoints, "Remote position")
		}
		return
	}

	jobLocation := lower(job.Location)
	if jobLocation != "" {
		for _, location := range profile.Locations {
			if containsEither(jobLocation, lower(location)) {
				c.add(locationPoints, "Location match: "+job.Location)
				return
			}
		}
	}

	if profile.WillingToRelocate {
		c.add(relocationPoints, "Open to relocation")
	}
}

func scoreExperience(c *card, job *jobs.Posting, profile *Profile) {
	if experienceMatches(job.ExperienceLevel, profile.ExperienceLevel, profile.YearsOfExperience) {
		c.add(experiencePoints, "Experience level match")
	}
}

func scoreSkills(c *card, job *jobs.Posting, profile *Profile) {
	denominator := max(len(job.Skills), len(profile.Skills))
	if denominator == 0 {
		return
	}

	matched := 0
	for _, jobSkill := range job.Skills {
		js := lower(jobSkill)
		if js == "" {
			continue
		}
		for _, skill := range profile.Skills {
			if containsEither(js, lower(skill)) {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return
	}

	points := int(math.Round(float64(skillPoints) * float64(matched) / float64(denominator)))
	c.add(points, fmt.Sprintf("Skills match: %d/%d", matched, len(job.Skills)))
}

func scoreIndustry(c *card, job *jobs.Posting, profile *Profile) {
	if job.Industry == "" {
		return
	}
	for _, industry := range profile.Industries {
		if strings.EqualFold(strings.TrimSpace(industry), strings.TrimSpace(job.Industry)) {
			c.add(industryPoints, "Industry match: "+job.Industry)
			return
		}
	}
}

func scoreSalary(c *card, job *jobs.Posting, profile *Profile) {
	if job.Salary == nil {
		c.add(salaryPoints, "Salary not specified")
		return
	}

	salary := *job.Salary
	if lo := profile.Salary.Min; lo != nil && *lo > 0 && salary < *lo {
		return
	}
	if hi := profile.Salary.Max; hi != nil && *hi > 0 && salary > *hi {
		return
	}
	c.add(salaryPoints, "Salary in range")
}

func scoreCompany(c *card, job *jobs.Posting, profile *Profile) {
	company := lower(job.Company)
	if company == "" {
		return
	}

	for _, excluded := range profile.ExcludedCompanies {
		if e := lower(excluded); e != "" && strings.Contains(company, e) {
			c.add(excludedCompanyPoints, ReasonExcludedCompany)
			return
		}
	}
	for _, priority := range profile.PriorityCompanies {
		if p := lower(priority); p != "" && strings.Contains(company, p) {
			c.add(priorityCompanyPoints, ReasonPriorityCompany)
			return
		}
	}
}

func clamp(score int) int {
	return min(max(score, minScore), maxScore)
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func sharesToken(a, b string) bool {
	tokens := strings.Fields(b)
	for _, t := range strings.Fields(a) {
		if slices.Contains(tokens, t) {
			return true
		}
	}
	return false
}
