package headhunter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/jobhackr/internal/jobs"
)

const (
	SourceName  = "headhunter"
	apiURL      = "https://api.hh.ru"
	mineResumID = "mine"
	userAgent   = "spigell/jobhackr (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
	// hh.ru starts answering 429 well before 10 rps.
	defaultRequestsPerSecond = 5
)

var ErrNoResume = errors.New("resume id is required to apply")

type Client struct {
	token      string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// Params are the base search parameters used by Fetch.
	Params *SearchParams
	// ResumeID is attached to every negotiation posted by Submit.
	ResumeID string
}

func New(logger *zap.Logger, token string, requestsPerSecond float64) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	return &Client{
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		APIURL:  apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
		Params:    &SearchParams{},
	}
}

func (c *Client) Name() string { return SourceName }

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

// Fetch searches vacancies for q on top of the configured Params.
func (c *Client) Fetch(ctx context.Context, q jobs.Query) ([]*jobs.Posting, error) {
	params := SearchParams{}
	if c.Params != nil {
		params = *c.Params
		params.Schedules = append([]string(nil), c.Params.Schedules...)
	}
	if params.Text == "" && len(q.Titles) > 0 {
		params.Text = strings.Join(q.Titles, " OR ")
	}
	if q.Remote && !contains(params.Schedules, remoteSchedule) {
		params.Schedules = append(params.Schedules, remoteSchedule)
	}

	vacancies, err := c.search(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("search vacancies: %w", err)
	}

	postings := vacancies.ToPostings()
	if q.Limit > 0 && len(postings) > q.Limit {
		postings = postings[:q.Limit]
	}
	return postings, nil
}

func (c *Client) GetMineResumes(ctx context.Context) (*Resumes, error) {
	return c.getResumes(ctx, mineResumID)
}

// AppliedIDs lists the vacancy IDs of every non-archived negotiation.
func (c *Client) AppliedIDs(ctx context.Context) ([]string, error) {
	negotiations, err := c.GetNegotiations(ctx)
	if err != nil {
		return nil, err
	}
	return negotiations.VacanciesIDs(), nil
}

// Submit applies to posting with message as the cover letter.
func (c *Client) Submit(ctx context.Context, posting *jobs.Posting, message string) error {
	if c.ResumeID == "" {
		return ErrNoResume
	}
	if posting.Source != SourceName {
		return fmt.Errorf("posting %s comes from %q, not %s", posting.ID, posting.Source, SourceName)
	}
	return c.postNegotiation(ctx, c.ResumeID, posting.ID, message)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
