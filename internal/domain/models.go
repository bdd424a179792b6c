package domain

import "fmt"

const (
	posterBaseURL   = "https://image.tmdb.org/t/p/w300"
	backdropBaseURL = "https://image.tmdb.org/t/p/w780"
)

// Query is the user's free-text search string.
// Two queries are equal only when their text is byte-equal.
type Query struct {
	Text string
}

// Empty reports whether there is nothing to search for
func (q Query) Empty() bool {
	return q.Text == ""
}

// Lifecycle identifies the span during which one (query, language) pair is active.
// Generation increases on every reset, so it alone is enough to tell lifecycles apart.
type Lifecycle struct {
	Generation uint64
	Query      Query
	Language   Language
}

// PageRequest fully determines a fetch. Two requests with equal fields are interchangeable.
type PageRequest struct {
	Lifecycle Lifecycle
	Query     Query
	Language  Language
	Page      int
}

// Key returns the canonical cache key for the request. The lifecycle is not part of it.
func (r PageRequest) Key() string {
	return fmt.Sprintf("%q:%s:%d", r.Query.Text, r.Language.Code(), r.Page)
}

// ResultItem is a single movie returned by the search provider
type ResultItem struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	Rating        float64 `json:"vote_average,omitempty"`
	VoteCount     int     `json:"vote_count,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	BackdropPath  string  `json:"backdrop_path,omitempty"`
}

// Year returns the release year, or 0 when the date is missing or malformed
func (i ResultItem) Year() int {
	if len(i.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, c := range i.ReleaseDate[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

func (i ResultItem) PosterURL() string {
	if i.PosterPath == "" {
		return ""
	}
	return posterBaseURL + i.PosterPath
}

func (i ResultItem) BackdropURL() string {
	if i.BackdropPath == "" {
		return ""
	}
	return backdropBaseURL + i.BackdropPath
}

// ResultPage is one fetched batch of results
type ResultPage struct {
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
	Items        []ResultItem `json:"results"`
}

// Empty reports whether the provider returned no items for the page
func (p *ResultPage) Empty() bool {
	return p == nil || len(p.Items) == 0
}

// MovieDetails holds the extra information shown when a single result is opened
type MovieDetails struct {
	ID       int
	Title    string
	Tagline  string
	Overview string
	Runtime  int // minutes
	Genres   []string
	Director string
}
