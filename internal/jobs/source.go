package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultParallelSources = 4

// Query is what every source is asked for.
type Query struct {
	Titles    []string
	Locations []string
	Remote    bool
	Limit     int
}

// Source is a job board or any other provider of postings.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]*Posting, error)
}

// SourceReport describes the outcome of one source during a fan-out.
type SourceReport struct {
	Source  string
	Fetched int
	Err     error
}

// Aggregator fans out a Query to every source concurrently and merges the
// answers.
type Aggregator struct {
	sources  []Source
	parallel int
	logger   *zap.Logger
}

func NewAggregator(logger *zap.Logger, parallel int, sources ...Source) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parallel <= 0 {
		parallel = defaultParallelSources
	}
	return &Aggregator{
		sources:  sources,
		parallel: parallel,
		logger:   logger,
	}
}

// Fetch queries every source. A failing source contributes zero postings and
// never aborts the others. Postings are deduplicated by Identity, keeping the
// first occurrence in source order.
func (a *Aggregator) Fetch(ctx context.Context, q Query) (*Postings, []SourceReport) {
	results := make([][]*Posting, len(a.sources))
	reports := make([]SourceReport, len(a.sources))

	var g errgroup.Group
	g.SetLimit(a.parallel)

	for i, source := range a.sources {
		g.Go(func() error {
			postings, err := fetchSafely(ctx, source, q)
			reports[i] = SourceReport{Source: source.Name(), Fetched: len(postings), Err: err}
			if err != nil {
				a.logger.Warn("job source failed",
					zap.String("source", source.Name()),
					zap.Error(err),
				)
				return nil
			}
			results[i] = postings
			return nil
		})
	}
	// Goroutines never return errors.
	_ = g.Wait()

	merged := &Postings{}
	seen := make(map[string]bool)
	for i, postings := range results {
		for _, posting := range postings {
			if posting == nil {
				continue
			}
			if posting.Source == "" {
				posting.Source = a.sources[i].Name()
			}
			id := posting.Identity()
			if seen[id] {
				continue
			}
			seen[id] = true
			merged.Items = append(merged.Items, posting)
		}
	}

	a.logger.Debug("postings fetched",
		zap.Int("sources", len(a.sources)),
		zap.Int("postings", merged.Len()),
	)

	return merged, reports
}

func fetchSafely(ctx context.Context, source Source, q Query) (postings []*Posting, err error) {
	defer func() {
		if r := recover(); r != nil {
			postings, err = nil, fmt.Errorf("source %s panicked: %v", source.Name(), r)
		}
	}()
	return source.Fetch(ctx, q)
}
