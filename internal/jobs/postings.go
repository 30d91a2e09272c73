package jobs

import (
	"encoding/json"
	"fmt"
	"os"
)

type Postings struct {
	Items []*Posting
}

func NewPostings(items ...*Posting) *Postings {
	return &Postings{Items: items}
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

// Exclude removes postings whose field matches any of targets and returns the
// removed IDs.
func (p *Postings) Exclude(field string, targets []string) []string {
	set := make(map[string]bool, len(targets))
	for _, t := range targets {
		set[t] = true
	}

	return p.Filter(func(posting *Posting) bool {
		return !set[posting.GetStringField(field)]
	})
}

// Filter keeps the postings for which keep returns true and returns the IDs of
// the dropped ones. Order is preserved.
func (p *Postings) Filter(keep func(*Posting) bool) []string {
	var dropped []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if keep(posting) {
			kept = append(kept, posting)
			continue
		}
		dropped = append(dropped, posting.ID)
	}
	for i := len(kept); i < len(p.Items); i++ {
		p.Items[i] = nil
	}
	p.Items = kept
	return dropped
}

// ReportByCompany groups a short description of every posting by company.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		key := fmt.Sprintf("%s (%s)", posting.Company, posting.Source)
		salary := "-"
		if posting.Salary != nil {
			salary = fmt.Sprintf("%d", *posting.Salary)
		}
		report[key] = append(report[key], map[string]string{
			"title":    posting.Title,
			"url":      posting.URL,
			"location": posting.Location,
			"salary":   salary,
			"remote":   fmt.Sprintf("%t", posting.Remote),
		})
	}
	return report
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}
