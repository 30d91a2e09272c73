package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/ai"
	"github.com/spigell/jobhackr/internal/util"
)

//go:embed cover_letter.md
var coverLetterPrompt string

const (
	defaultMaxLogLength = 200
	maxCVRunes          = 3000
	maxDescriptionRunes = 2000
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Writer asks Gemini for a cover letter tailored to a scored job.
type Writer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewWriter(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Writer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Writer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (w *Writer) Write(ctx context.Context, req ai.LetterRequest) (string, error) {
	if req.Result == nil || req.Result.Job == nil {
		return "", ai.ErrNoJob
	}
	job := req.Result.Job

	message := buildMessage(req)

	w.logger.Debug("gemini cover letter request",
		zap.String("job_id", job.ID),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", util.TruncateForLog(message, w.maxLogLen)),
	)

	letter, err := w.generator.GenerateContent(ctx, coverLetterPrompt, message)
	if err != nil {
		return "", err
	}

	w.logger.Debug("gemini cover letter response",
		zap.String("job_id", job.ID),
		zap.Int("response_length", utf8.RuneCountInString(letter)),
		zap.String("response_preview", util.TruncateForLog(letter, w.maxLogLen)),
	)

	return strings.TrimSpace(letter), nil
}

func buildMessage(req ai.LetterRequest) string {
	job := req.Result.Job

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n", req.Candidate)
	fmt.Fprintf(&b, "Language: %s\n", letterLanguage(job.Language))
	fmt.Fprintf(&b, "Role: %s\n", job.Title)
	fmt.Fprintf(&b, "Company: %s\n", job.Company)
	if job.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", job.Location)
	}
	if skills := ai.MatchedSkills(req); len(skills) > 0 {
		fmt.Fprintf(&b, "Matched skills: %s\n", strings.Join(skills, ", "))
	}
	if req.Profile != nil && req.Profile.YearsOfExperience > 0 {
		fmt.Fprintf(&b, "Years of experience: %d\n", req.Profile.YearsOfExperience)
	}
	fmt.Fprintf(&b, "Match score: %d\n", req.Result.Score)

	if desc := strings.TrimSpace(job.Description); desc != "" {
		b.WriteString("\nJOB DESCRIPTION:\n")
		b.WriteString(truncate(desc, maxDescriptionRunes))
		b.WriteString("\n")
	}
	if cv := strings.TrimSpace(req.CV); cv != "" {
		b.WriteString("\nCV:\n")
		b.WriteString(truncate(cv, maxCVRunes))
		b.WriteString("\n")
	}

	return b.String()
}

func letterLanguage(lang string) string {
	if lang == "" {
		return "english"
	}
	return lang
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
