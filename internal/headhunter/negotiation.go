package headhunter

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mitchellh/mapstructure"
)

const (
	apiNegotiationPath        = "/negotiations"
	allStatusesExceptArchived = "non_archived"
)

type Negotiations []*Negotiation

type Negotiation struct {
	ID        string
	CreatedAt string `json:"created_at" mapstructure:"created_at"`
	URL       string
	Vacancy   *Vacancy
}

func (c *Client) GetNegotiations(ctx context.Context) (*Negotiations, error) {
	apiURLMineNegotiations := fmt.Sprintf("%s%s", c.APIURL, apiNegotiationPath)

	q := url.Values{}
	// We never need our archived negotiations
	q.Add("status", allStatusesExceptArchived)
	// Set per_page max as possible. It should be faster.
	q.Add("per_page", perPage)

	items, err := c.GetItems(ctx, apiURLMineNegotiations, q)
	if err != nil {
		return nil, fmt.Errorf("get negotiations: %w", err)
	}

	var negotiations Negotiations
	if err = mapstructure.Decode(items, &negotiations); err != nil {
		return nil, err
	}

	return &negotiations, nil
}

func (n *Negotiations) VacanciesIDs() []string {
	ids := make([]string, 0, len(*n))

	for _, v := range *n {
		if v.Vacancy == nil {
			continue
		}
		ids = append(ids, v.Vacancy.ID)
	}

	return ids
}

func (c *Client) postNegotiation(ctx context.Context, resume, vacancy, message string) error {
	apiURLMineNegotiations := fmt.Sprintf("%s%s", c.APIURL, apiNegotiationPath)

	data := map[string]string{
		"resume_id":  resume,
		"vacancy_id": vacancy,
		"message":    message,
	}

	if err := c.postFormData(ctx, apiURLMineNegotiations, data); err != nil {
		return fmt.Errorf("apply to vacancy %s: %w", vacancy, err)
	}

	return nil
}
