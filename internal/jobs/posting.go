// Package jobs holds the job posting model, job sources and the
// concurrent fan-out that collects postings from all of them.
package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	PostingIDField      = "ID"
	PostingCompanyField = "Company"
	PostingKeyField     = "Key"
)

// Posting is a job posting as fetched from a source. It is treated as
// immutable once a source returned it, except for enrichment of empty fields.
type Posting struct {
	ID              string    `mapstructure:"id" json:"id"`
	Source          string    `mapstructure:"source" json:"source"`
	Title           string    `mapstructure:"title" json:"title"`
	Company         string    `mapstructure:"company" json:"company"`
	Location        string    `mapstructure:"location" json:"location"`
	Description     string    `mapstructure:"description" json:"description,omitempty"`
	Salary          *int      `mapstructure:"salary" json:"salary,omitempty"`
	ExperienceLevel string    `mapstructure:"experience-level" json:"experience_level,omitempty"`
	JobType         string    `mapstructure:"job-type" json:"job_type,omitempty"`
	Industry        string    `mapstructure:"industry" json:"industry,omitempty"`
	Remote          bool      `mapstructure:"remote" json:"remote"`
	Language        string    `mapstructure:"language" json:"language,omitempty"`
	Skills          []string  `mapstructure:"skills" json:"skills,omitempty"`
	URL             string    `mapstructure:"url" json:"url,omitempty"`
	RequiresTest    bool      `mapstructure:"requires-test" json:"requires_test,omitempty"`
	PostedAt        time.Time `mapstructure:"posted-at" json:"posted_at"`
}

// Identity is the deduplication hash of source, company, title and location.
func (p *Posting) Identity() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		normalize(p.Source),
		normalize(p.Company),
		normalize(p.Title),
		normalize(p.Location),
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// ApplicationKey identifies "the same job" across sources for
// already-applied checks: company and title only.
func (p *Posting) ApplicationKey() string {
	return ApplicationKey(p.Company, p.Title)
}

// ApplicationKey builds the company+title deduplication key.
func ApplicationKey(company, title string) string {
	return normalize(company) + "|" + normalize(title)
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ID
	case PostingCompanyField:
		return p.Company
	case PostingKeyField:
		return p.ApplicationKey()
	default:
		return ""
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
