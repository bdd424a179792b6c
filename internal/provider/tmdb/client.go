package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"moviescroll/internal/domain"
)

const (
	defaultBaseURL    = "https://api.themoviedb.org/3"
	defaultTimeout    = 10 * time.Second
	defaultRPS        = 4.0
	maxBodyBytes      = 512 * 1024
	maxErrorBodyBytes = 1024
)

// Config configures a Client
type Config struct {
	APIKey            string
	BaseURL           string
	Client            *http.Client
	RequestsPerSecond float64
	Retry             RetryConfig
	Logger            *zap.Logger
}

// Client talks to the TMDB v3 API. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
	logger  *zap.Logger
}

type searchResponse struct {
	Page         int                 `json:"page"`
	TotalPages   int                 `json:"total_pages"`
	TotalResults int                 `json:"total_results"`
	Results      []domain.ResultItem `json:"results"`
}

type detailsResponse struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Tagline  string `json:"tagline"`
	Overview string `json:"overview"`
	Runtime  int    `json:"runtime"`
	Genres   []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Crew []struct {
			Job  string `json:"job"`
			Name string `json:"name"`
		} `json:"crew"`
	} `json:"credits"`
}

// statusError is returned for non-200 responses
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb HTTP %d: %s", e.Code, e.Body)
}

// NewClient creates a new TMDB client
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		retry:   retry,
		logger:  logger.Named("tmdb"),
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Fetch requests one page of movie search results
func (c *Client) Fetch(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
	if !c.Enabled() {
		return nil, domain.NewFetchError(req, domain.ReasonStatus, errors.New("no TMDB API key configured"))
	}

	params := url.Values{
		"api_key":       {c.apiKey},
		"query":         {strings.TrimSpace(req.Query.Text)},
		"language":      {req.Language.Code()},
		"page":          {strconv.Itoa(req.Page)},
		"include_adult": {"false"},
	}

	var response searchResponse
	if err := c.getJSON(ctx, "/search/movie", params, &response); err != nil {
		return nil, domain.NewFetchError(req, classify(err), err)
	}

	c.logger.Debug("search page fetched",
		zap.String("query", req.Query.Text),
		zap.String("language", req.Language.Code()),
		zap.Int("page", req.Page),
		zap.Int("results", len(response.Results)),
		zap.Int("total_pages", response.TotalPages))

	return &domain.ResultPage{
		Page:         response.Page,
		TotalPages:   response.TotalPages,
		TotalResults: response.TotalResults,
		Items:        response.Results,
	}, nil
}

// Details fetches runtime, genres and director of a single movie in lang
func (c *Client) Details(ctx context.Context, id int, lang domain.Language) (*domain.MovieDetails, error) {
	if !c.Enabled() {
		return nil, errors.New("no TMDB API key configured")
	}

	params := url.Values{
		"api_key":            {c.apiKey},
		"language":           {lang.Code()},
		"append_to_response": {"credits"},
	}

	var response detailsResponse
	if err := c.getJSON(ctx, "/movie/"+strconv.Itoa(id), params, &response); err != nil {
		return nil, fmt.Errorf("movie %d details: %w", id, err)
	}

	details := &domain.MovieDetails{
		ID:       response.ID,
		Title:    response.Title,
		Tagline:  response.Tagline,
		Overview: response.Overview,
		Runtime:  response.Runtime,
	}
	for _, g := range response.Genres {
		details.Genres = append(details.Genres, g.Name)
	}
	for _, member := range response.Credits.Crew {
		if member.Job == "Director" {
			details.Director = member.Name
			break
		}
	}
	return details, nil
}

// getJSON performs a rate limited GET with retries and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	return RetryWithBackoff(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
			return &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &malformedError{err: err}
		}
		return nil
	})
}

type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return "malformed response: " + e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

// classify maps a transport or decoding error to a FetchError reason
func classify(err error) string {
	var se *statusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests {
			return domain.ReasonRateLimited
		}
		return domain.ReasonStatus
	}
	var me *malformedError
	if errors.As(err, &me) {
		return domain.ReasonMalformed
	}
	if errors.Is(err, context.Canceled) {
		return domain.ReasonCanceled
	}
	return domain.ReasonNetwork
}
