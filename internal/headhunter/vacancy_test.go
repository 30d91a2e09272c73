package headhunter

import (
	"encoding/json"
	"testing"
	"time"
)

const vacancyJSON = `{
	"id": "101",
	"name": "Go Developer",
	"area": {"id": "1", "name": "Moscow"},
	"has_test": true,
	"salary": {"from": 0, "to": 300000, "currency": "RUR"},
	"experience": {"id": "between3And6"},
	"schedule": {"id": "remote"},
	"employer": {"id": "emp1", "name": "Acme"},
	"alternate_url": "https://hh.ru/vacancy/101",
	"employment": {"id": "full"},
	"key_skills": [{"name": "Golang"}, {"name": " PostgreSQL "}, {"name": ""}],
	"snippet": {"requirement": "Strong Go skills.", "responsibility": "Build services."},
	"published_at": "2026-10-18T09:30:00+0300"
}`

func TestVacancyToPosting(t *testing.T) {
	var v Vacancy
	if err := json.Unmarshal([]byte(vacancyJSON), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := v.ToPosting()

	if p.ID != "101" || p.Source != SourceName {
		t.Fatalf("unexpected identity: %q %q", p.ID, p.Source)
	}
	if p.Title != "Go Developer" || p.Company != "Acme" || p.Location != "Moscow" {
		t.Fatalf("unexpected fields: %+v", p)
	}
	if p.ExperienceLevel != "senior" {
		t.Fatalf("expected senior, got %q", p.ExperienceLevel)
	}
	if !p.Remote {
		t.Fatalf("expected remote posting")
	}
	if !p.RequiresTest {
		t.Fatalf("expected requires test")
	}
	if p.Salary == nil || *p.Salary != 300000 {
		t.Fatalf("expected salary upper bound, got %v", p.Salary)
	}
	if len(p.Skills) != 2 || p.Skills[0] != "golang" || p.Skills[1] != "postgresql" {
		t.Fatalf("unexpected skills: %v", p.Skills)
	}
	if p.Description != "Strong Go skills. Build services." {
		t.Fatalf("unexpected description: %q", p.Description)
	}
	want := time.Date(2026, 10, 18, 6, 30, 0, 0, time.UTC)
	if !p.PostedAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, p.PostedAt)
	}
}

func TestVacancyToPostingWithoutOptionalFields(t *testing.T) {
	v := &Vacancy{ID: "7", Name: "QA"}

	p := v.ToPosting()

	if p.Salary != nil {
		t.Fatalf("expected nil salary, got %d", *p.Salary)
	}
	if p.ExperienceLevel != "" {
		t.Fatalf("expected empty experience, got %q", p.ExperienceLevel)
	}
	if !p.PostedAt.IsZero() {
		t.Fatalf("expected zero posted at")
	}
}

func TestVacanciesFindByID(t *testing.T) {
	v := &Vacancies{Items: []*Vacancy{{ID: "1"}, {ID: "2"}}}

	if v.FindByID("2") == nil {
		t.Fatalf("expected vacancy 2")
	}
	if v.FindByID("3") != nil {
		t.Fatalf("did not expect vacancy 3")
	}
	if got := len(v.ToPostings()); got != 2 {
		t.Fatalf("expected 2 postings, got %d", got)
	}
}

func TestBuildParams(t *testing.T) {
	q := buildParams(&SearchParams{
		Text:      "golang",
		Areas:     []int{1, 2},
		Schedules: []string{"remote"},
		PerPage:   "100",
	})

	if q.Get("text") != "golang" {
		t.Fatalf("unexpected text: %q", q.Get("text"))
	}
	if areas := q["area"]; len(areas) != 2 || areas[0] != "1" || areas[1] != "2" {
		t.Fatalf("unexpected areas: %v", areas)
	}
	if q.Get("schedule") != "remote" {
		t.Fatalf("unexpected schedule: %q", q.Get("schedule"))
	}
	if q.Has("clusters") || q.Has("period") || q.Has("employer_id") {
		t.Fatalf("zero values must be omitted: %v", q)
	}
}
