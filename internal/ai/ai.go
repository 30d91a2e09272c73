package ai

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/matching"
)

var ErrNoJob = errors.New("cover letter needs a scored job")

// LetterRequest is everything a writer may use to tailor a cover letter.
type LetterRequest struct {
	Candidate string
	CV        string
	Profile   *matching.Profile
	Result    *matching.Result
}

type CoverLetterWriter interface {
	Write(ctx context.Context, req LetterRequest) (string, error)
}

// Fallback tries Primary and falls back to Secondary when it fails or
// returns an empty letter.
type Fallback struct {
	Primary   CoverLetterWriter
	Secondary CoverLetterWriter
	Logger    *zap.Logger
}

func (f *Fallback) Write(ctx context.Context, req LetterRequest) (string, error) {
	if f.Primary != nil {
		letter, err := f.Primary.Write(ctx, req)
		if err == nil && strings.TrimSpace(letter) != "" {
			return letter, nil
		}
		if f.Logger != nil {
			fields := []zap.Field{zap.Error(err)}
			if req.Result != nil && req.Result.Job != nil {
				fields = append(fields, zap.String("job_id", req.Result.Job.ID))
			}
			f.Logger.Warn("cover letter generation failed, using fallback", fields...)
		}
	}
	return f.Secondary.Write(ctx, req)
}

// MatchedSkills returns the job skills the candidate has, in job order.
func MatchedSkills(req LetterRequest) []string {
	if req.Result == nil || req.Result.Job == nil || req.Profile == nil {
		return nil
	}
	have := make(map[string]bool, len(req.Profile.Skills))
	for _, s := range req.Profile.Skills {
		have[strings.ToLower(strings.TrimSpace(s))] = true
	}
	var matched []string
	for _, s := range req.Result.Job.Skills {
		if have[strings.ToLower(strings.TrimSpace(s))] {
			matched = append(matched, s)
		}
	}
	return matched
}
