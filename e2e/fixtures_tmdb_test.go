//go:build e2e && unix

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const fakeAPIKey = "e2e-key"

// fakeMovie is one search hit served by FakeTMDB
type fakeMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Rating      float64 `json:"vote_average,omitempty"`
}

type searchPage struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []fakeMovie `json:"results"`
}

// SearchCall records one request made to the search endpoint
type SearchCall struct {
	Query    string
	Language string
	Page     int
}

// FakeTMDB serves /search/movie and /movie/{id} from fixed data.
// Pages past the last configured page are empty.
type FakeTMDB struct {
	*httptest.Server

	mu    sync.Mutex
	pages map[string][][]fakeMovie // query -> pages
	calls []SearchCall
}

// NewFakeTMDB starts the server
func NewFakeTMDB() *FakeTMDB {
	f := &FakeTMDB{pages: map[string][][]fakeMovie{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", f.handleSearch)
	mux.HandleFunc("/movie/", f.handleDetails)
	f.Server = httptest.NewServer(mux)
	return f
}

// AddSeries registers pageCount pages of perPage movies for query
func (f *FakeTMDB) AddSeries(query, title string, pageCount, perPage int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pages [][]fakeMovie
	id := 1000 * (len(f.pages) + 1)
	for p := 0; p < pageCount; p++ {
		var movies []fakeMovie
		for i := 0; i < perPage; i++ {
			id++
			movies = append(movies, fakeMovie{
				ID:          id,
				Title:       fmt.Sprintf("%s %d", title, p*perPage+i+1),
				ReleaseDate: "2001-11-16",
				Rating:      7.5,
			})
		}
		pages = append(pages, movies)
	}
	f.pages[strings.ToLower(query)] = pages
}

// Calls returns the search requests seen so far
func (f *FakeTMDB) Calls() []SearchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SearchCall(nil), f.calls...)
}

// HasCall reports whether a search with the given language and page was made
func (f *FakeTMDB) HasCall(language string, page int) bool {
	for _, c := range f.Calls() {
		if c.Language == language && c.Page == page {
			return true
		}
	}
	return false
}

func (f *FakeTMDB) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("api_key") != fakeAPIKey {
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	call := SearchCall{Query: q.Get("query"), Language: q.Get("language"), Page: page}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	pages := f.pages[strings.ToLower(call.Query)]
	f.mu.Unlock()

	resp := searchPage{Page: page, TotalPages: len(pages), Results: []fakeMovie{}}
	if page >= 1 && page <= len(pages) {
		for _, m := range pages[page-1] {
			if call.Language != "en-US" {
				m.Title = m.Title + " [" + call.Language + "]"
			}
			resp.Results = append(resp.Results, m)
		}
	}
	for _, p := range pages {
		resp.TotalResults += len(p)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *FakeTMDB) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/movie/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":       id,
		"title":    fmt.Sprintf("Movie %d", id),
		"tagline":  "A fixture tagline",
		"overview": "Fixture overview.",
		"runtime":  152,
		"genres":   []map[string]any{{"id": 1, "name": "Fantasy"}},
		"credits":  map[string]any{"crew": []map[string]any{{"job": "Director", "name": "Chris Columbus"}}},
	})
}

// CreateTestWorkspace creates an isolated directory with a config pointing at tmdb
func (tf *TUITestFramework) CreateTestWorkspace(tmdb *FakeTMDB) (string, error) {
	workspace, err := os.MkdirTemp("", "moviescroll-e2e-*")
	if err != nil {
		return "", err
	}
	tf.workspace = workspace

	config := fmt.Sprintf(`version = 1
language = "en-US"

[tmdb]
api_key = ""
base_url = %q
timeout = "5s"
requests_per_second = 50
max_retries = 1

[cache]
backend = "memory"
ttl = "1m"

[ui]
show_overview = false
mouse = false
`, tmdb.URL)
	if err := os.WriteFile(tf.ConfigPath(), []byte(config), 0o600); err != nil {
		return "", err
	}
	return workspace, nil
}

// ConfigPath is the config file used by the app under test
func (tf *TUITestFramework) ConfigPath() string {
	return filepath.Join(tf.workspace, "config.toml")
}

// LogPath is the log file used by the app under test
func (tf *TUITestFramework) LogPath() string {
	return filepath.Join(tf.workspace, "moviescroll.log")
}
