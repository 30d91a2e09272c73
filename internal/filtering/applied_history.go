package filtering

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/jobs"
)

const forceFlagSetMsg = "force flag is set"

type appliedHistoryFilter struct {
	toggle
	ignore bool
}

// NewAppliedHistory creates a filter that removes postings the boards already
// hold an application for. IDs are matched per source.
func NewAppliedHistory(ignore bool) Filter {
	return &appliedHistoryFilter{ignore: ignore}
}

func (f *appliedHistoryFilter) Name() string { return "applied_history" }

func (f *appliedHistoryFilter) Validate(*Config) error { return nil }

func (f *appliedHistoryFilter) Apply(ctx context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if f.ignore {
		deps.Logger.Info("ignoring already applied jobs", zap.String("reason", forceFlagSetMsg))
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	applied := make(map[string]map[string]bool, len(deps.Applied))
	unavailable := make(map[string]bool)
	for _, source := range deps.Applied {
		ids, err := source.AppliedIDs(ctx)
		if err != nil {
			// Without the list any of its postings may be a second application.
			deps.Logger.Warn("cannot get applied jobs, dropping postings of the source",
				zap.String("source", source.Name()),
				zap.Error(err),
			)
			unavailable[source.Name()] = true
			continue
		}
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		applied[source.Name()] = set
	}

	excluded := p.Filter(func(posting *jobs.Posting) bool {
		return !unavailable[posting.Source] && !applied[posting.Source][posting.ID]
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding jobs based on my applications",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_applied": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}
