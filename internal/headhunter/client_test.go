package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/jobs"
)

type fakeHH struct {
	mu      sync.Mutex
	applied map[string]string
	queries []string
}

func (f *fakeHH) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/vacancies", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		f.mu.Unlock()

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		items := []map[string]any{
			{"id": strconv.Itoa(page*10 + 1), "name": "Go Developer", "employer": map[string]any{"name": "Acme"}, "schedule": map[string]any{"id": "remote"}},
			{"id": strconv.Itoa(page*10 + 2), "name": "SRE", "employer": map[string]any{"name": "Globex"}},
		}
		writeGzipJSON(t, w, map[string]any{"items": items, "page": page, "pages": 2, "per_page": 2, "found": 4})
	})

	mux.HandleFunc("/negotiations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse form: %v", err)
			}
			f.mu.Lock()
			f.applied[r.FormValue("vacancy_id")] = r.FormValue("message")
			f.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			return
		}

		if r.URL.Query().Get("status") != allStatusesExceptArchived {
			t.Errorf("unexpected status filter: %q", r.URL.Query().Get("status"))
		}
		items := []map[string]any{
			{"id": "n1", "vacancy": map[string]any{"id": "11"}},
			{"id": "n2", "vacancy": map[string]any{"id": "12"}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "page": 0, "pages": 1})
	})

	return mux
}

func writeGzipJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	defer gz.Close()
	if err := json.NewEncoder(gz).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeHH) {
	t.Helper()
	fake := &fakeHH{applied: make(map[string]string)}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	c := New(zap.NewNop(), "token", 1000)
	c.APIURL = srv.URL
	c.HTTPClient = srv.Client()
	return c, fake
}

func TestFetchWalksAllPages(t *testing.T) {
	c, fake := newTestClient(t)

	postings, err := c.Fetch(context.Background(), jobs.Query{Titles: []string{"Go Developer", "SRE"}, Remote: true})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(postings) != 4 {
		t.Fatalf("expected 4 postings, got %d", len(postings))
	}
	if postings[0].ID != "1" || postings[2].ID != "11" {
		t.Fatalf("unexpected order: %s, %s", postings[0].ID, postings[2].ID)
	}
	if !postings[0].Remote || postings[1].Remote {
		t.Fatalf("unexpected remote flags")
	}
	if postings[0].Source != SourceName {
		t.Fatalf("unexpected source %q", postings[0].Source)
	}

	if len(fake.queries) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(fake.queries))
	}
	if c.Params.Text != "" || len(c.Params.Schedules) != 0 {
		t.Fatalf("fetch must not mutate base params: %+v", c.Params)
	}
}

func TestFetchLimit(t *testing.T) {
	c, _ := newTestClient(t)

	postings, err := c.Fetch(context.Background(), jobs.Query{Limit: 3})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(postings) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(postings))
	}
}

func TestAppliedIDs(t *testing.T) {
	c, _ := newTestClient(t)

	ids, err := c.AppliedIDs(context.Background())
	if err != nil {
		t.Fatalf("applied ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "11" || ids[1] != "12" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestSubmit(t *testing.T) {
	c, fake := newTestClient(t)
	posting := &jobs.Posting{ID: "11", Source: SourceName}

	if err := c.Submit(context.Background(), posting, "Hello"); err != ErrNoResume {
		t.Fatalf("expected ErrNoResume, got %v", err)
	}

	c.ResumeID = "r1"
	if err := c.Submit(context.Background(), posting, "Hello"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fake.applied["11"] != "Hello" {
		t.Fatalf("expected message to be posted, got %v", fake.applied)
	}

	if err := c.Submit(context.Background(), &jobs.Posting{ID: "x", Source: "file"}, "Hello"); err == nil {
		t.Fatalf("expected error for foreign posting")
	}
}

func TestBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(nil, "token", 1000)
	c.APIURL = srv.URL

	if _, err := c.Fetch(context.Background(), jobs.Query{}); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestResumeDetailsText(t *testing.T) {
	d := &ResumeDetails{
		Title: "Backend developer",
		Raw: map[string]any{
			"skill_set": []any{"Golang", "Docker"},
			"skills":    "Ten years of  services.",
			"experience": []any{
				map[string]any{"position": "Senior engineer", "description": "Kubernetes operators"},
			},
		},
	}

	want := "Backend developer Golang Docker Ten years of services. Senior engineer Kubernetes operators"
	if got := d.Text(); got != want {
		t.Fatalf("unexpected text:\n got: %q\nwant: %q", got, want)
	}
}
