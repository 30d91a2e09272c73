package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/jobs"
)

type withTestFilter struct {
	toggle
}

// NewWithTest creates a filter that removes postings requiring a test task.
func NewWithTest() Filter {
	return &withTestFilter{}
}

func (f *withTestFilter) Name() string { return "with_test" }

func (f *withTestFilter) Validate(*Config) error { return nil }

func (f *withTestFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	excluded := p.Filter(func(posting *jobs.Posting) bool {
		return !posting.RequiresTest
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding postings with tests. It is impossible to apply them",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *withTestFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
