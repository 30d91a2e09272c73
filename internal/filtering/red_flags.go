package filtering

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/jobs"
)

type redFlagsFilter struct {
	toggle
	flags []string
}

// NewRedFlags creates a filter that drops postings mentioning any configured
// red flag term in the title, company or description.
func NewRedFlags() Filter {
	return &redFlagsFilter{}
}

func (f *redFlagsFilter) Name() string { return "red_flags" }

func (f *redFlagsFilter) Validate(cfg *Config) error {
	f.flags = nil
	if cfg == nil {
		return nil
	}
	for _, flag := range cfg.RedFlags {
		if flag = strings.ToLower(strings.TrimSpace(flag)); flag != "" {
			f.flags = append(f.flags, flag)
		}
	}
	return nil
}

func (f *redFlagsFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.flags) == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded := p.Filter(func(posting *jobs.Posting) bool {
		return !ContainsRedFlag(posting, f.flags)
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding jobs with red flags",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *redFlagsFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"terms": strconv.Itoa(len(f.flags))},
	}
}

// ContainsRedFlag reports whether any flag appears in the posting title,
// company or description, ignoring case.
func ContainsRedFlag(posting *jobs.Posting, flags []string) bool {
	if len(flags) == 0 {
		return false
	}
	combined := strings.ToLower(posting.Title + " " + posting.Company + " " + posting.Description)
	for _, flag := range flags {
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
