package headhunter

import (
	"strings"
	"time"

	"github.com/spigell/jobhackr/internal/jobs"
)

const publishedAtLayout = "2006-01-02T15:04:05-0700"

// experienceLevels maps hh.ru experience ids to scorer labels.
var experienceLevels = map[string]string{
	"noExperience": "entry",
	"between1And3": "mid",
	"between3And6": "senior",
	"moreThan6":    "lead",
}

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	HasTest bool `json:"has_test,omitempty"`
	Salary  *struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Experience struct {
		ID string `json:"id,omitempty"`
	} `json:"experience,omitempty"`
	Schedule struct {
		ID string `json:"id,omitempty"`
	} `json:"schedule,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Employment   struct {
		ID string `json:"id,omitempty"`
	} `json:"employment,omitempty"`
	Description string `json:"description,omitempty"`
	KeySkills   []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Snippet struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

func (v *Vacancies) ToPostings() []*jobs.Posting {
	postings := make([]*jobs.Posting, 0, len(v.Items))
	for _, vacancy := range v.Items {
		if vacancy == nil {
			continue
		}
		postings = append(postings, vacancy.ToPosting())
	}
	return postings
}

// ToPosting converts a vacancy into a job posting. The salary is the lower
// bound when present, the upper one otherwise.
func (va *Vacancy) ToPosting() *jobs.Posting {
	p := &jobs.Posting{
		ID:              va.ID,
		Source:          SourceName,
		Title:           va.Name,
		Company:         va.Employer.Name,
		Location:        va.Area.Name,
		Description:     va.description(),
		ExperienceLevel: experienceLevels[va.Experience.ID],
		JobType:         va.Employment.ID,
		Remote:          va.Schedule.ID == remoteSchedule,
		URL:             va.AlternateURL,
		RequiresTest:    va.HasTest,
	}

	if va.Salary != nil {
		switch {
		case va.Salary.From > 0:
			from := va.Salary.From
			p.Salary = &from
		case va.Salary.To > 0:
			to := va.Salary.To
			p.Salary = &to
		}
	}

	for _, skill := range va.KeySkills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			p.Skills = append(p.Skills, strings.ToLower(name))
		}
	}

	if t, err := time.Parse(publishedAtLayout, va.PublishedAt); err == nil {
		p.PostedAt = t
	}

	return p
}

// Search results carry only a snippet; full descriptions come with the
// vacancy details endpoint.
func (va *Vacancy) description() string {
	if va.Description != "" {
		return va.Description
	}
	return strings.TrimSpace(va.Snippet.Requirement + " " + va.Snippet.Responsibility)
}
