package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const fileSourceName = "file"

// FileSource serves canned postings from a YAML or JSON file with a top-level
// "jobs" list. The file is re-read on every Fetch.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return fileSourceName }

func (s *FileSource) Fetch(_ context.Context, q Query) ([]*Posting, error) {
	postings, err := LoadFile(s.path)
	if err != nil {
		return nil, err
	}

	result := make([]*Posting, 0, len(postings))
	for _, p := range postings {
		if q.Remote && !p.Remote {
			continue
		}
		if !matchesAny(p.Title, q.Titles) {
			continue
		}
		if p.Source == "" {
			p.Source = fileSourceName
		}
		result = append(result, p)
		if q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}
	return result, nil
}

// LoadFile decodes the "jobs" list from path.
func LoadFile(path string) ([]*Posting, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read jobs file %s: %w", path, err)
	}

	var postings []*Posting
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &postings,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.Get("jobs")); err != nil {
		return nil, fmt.Errorf("decode jobs file %s: %w", path, err)
	}

	return postings, nil
}

// matchesAny reports whether title shares a word with any of the wanted
// titles. An empty list matches everything.
func matchesAny(title string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	words := strings.Fields(strings.ToLower(title))
	for _, w := range wanted {
		for _, token := range strings.Fields(strings.ToLower(w)) {
			for _, word := range words {
				if word == token {
					return true
				}
			}
		}
	}
	return false
}
