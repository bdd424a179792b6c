package stream

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"moviescroll/internal/domain"
	"moviescroll/internal/eventbus"
)

const defaultFetchTimeout = 15 * time.Second

// PageResultMsg carries the outcome of a page fetch back into the event loop
type PageResultMsg struct {
	Request domain.PageRequest
	Page    *domain.ResultPage
	Err     error
}

// Snapshot is what the UI layer gets to see of the stream
type Snapshot struct {
	Query      string
	Language   domain.Language
	Items      []domain.ResultItem
	Loading    bool
	Err        error
	Page       int
	TotalPages int
	Exhausted  bool
}

// Config holds the collaborators of a Controller
type Config struct {
	Fetcher  Fetcher
	Language domain.Language
	Source   VisibilitySource
	Bus      eventbus.EventBus
	Logger   *zap.Logger
	Timeout  time.Duration // per fetch
}

// Controller owns the state of one search session: the active query and
// language, the current page and the accumulated, deduplicated results.
//
// All methods must be called from a single goroutine (the Bubble Tea Update
// loop). Fetches run as tea.Cmds and report back through HandleResult, so at
// most one fetch per lifecycle is ever in flight.
type Controller struct {
	ctx     context.Context
	fetcher Fetcher
	trigger *Trigger
	bus     eventbus.EventBus
	logger  *zap.Logger
	timeout time.Duration

	lifecycle      domain.Lifecycle
	page           int
	items          []domain.ResultItem
	seen           *SeenSet
	loading        bool
	pendingAdvance bool
	exhausted      bool
	lastErr        error
	totalPages     int
	cancel         context.CancelFunc
}

// NewController creates a controller for a new search session. ctx bounds every fetch.
func NewController(ctx context.Context, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Controller{
		ctx:       ctx,
		fetcher:   cfg.Fetcher,
		trigger:   NewTrigger(cfg.Source),
		bus:       cfg.Bus,
		logger:    logger.Named("stream"),
		timeout:   timeout,
		lifecycle: domain.Lifecycle{Language: cfg.Language},
		page:      1,
		seen:      NewSeenSet(),
	}
}

// SubmitQuery starts a new stream for text. Resubmitting the active text does nothing.
func (c *Controller) SubmitQuery(text string) tea.Cmd {
	if text == c.lifecycle.Query.Text {
		return nil
	}
	c.lifecycle.Query = domain.Query{Text: text}
	c.reset("query")
	if c.lifecycle.Query.Empty() {
		return nil
	}
	return c.startFetch(false)
}

// SetLanguage switches the active language and re-queries the same text from page 1
func (c *Controller) SetLanguage(lang domain.Language) tea.Cmd {
	from := c.lifecycle.Language
	if lang == from {
		return nil
	}
	c.lifecycle.Language = lang
	c.reset("language")
	c.publish(domain.LanguageChangedEvent{From: from, To: lang})
	if c.lifecycle.Query.Empty() {
		return nil
	}
	return c.startFetch(false)
}

// NotifyNearEnd reacts to the user reaching the end of the loaded list.
// While a fetch is in flight the signal is remembered and honoured once it completes.
func (c *Controller) NotifyNearEnd() tea.Cmd {
	if c.lifecycle.Query.Empty() {
		return nil
	}
	if c.loading {
		c.pendingAdvance = true
		return nil
	}
	switch {
	case c.lastErr != nil:
		return c.startFetch(true)
	case c.exhausted:
		// the provider may report more results later, ask for the same page again
		return c.startFetch(false)
	}
	c.page++
	return c.startFetch(false)
}

// Retry re-requests the current page after a failure
func (c *Controller) Retry() tea.Cmd {
	if c.lifecycle.Query.Empty() || c.loading || c.lastErr == nil {
		return nil
	}
	return c.startFetch(true)
}

// MarkerVisibility feeds a visibility report for m through the trigger
func (c *Controller) MarkerVisibility(m Marker, visible bool) tea.Cmd {
	if !c.trigger.Visibility(m, visible) {
		return nil
	}
	c.logger.Debug("near end reached", zap.Uint64("generation", m.Generation), zap.Int("item", m.ItemID))
	return c.NotifyNearEnd()
}

// HandleResult merges a finished fetch into the stream.
// Results from a superseded lifecycle are dropped without touching any state.
func (c *Controller) HandleResult(msg PageResultMsg) tea.Cmd {
	if !c.isCurrent(msg.Request) {
		c.logger.Debug("dropping stale response",
			zap.String("query", msg.Request.Query.Text),
			zap.String("language", msg.Request.Language.Code()),
			zap.Int("page", msg.Request.Page),
			zap.Uint64("generation", msg.Request.Lifecycle.Generation),
			zap.Uint64("current", c.lifecycle.Generation))
		c.publish(domain.StaleResponseDroppedEvent{Request: msg.Request, Current: c.lifecycle})
		return nil
	}

	c.loading = false
	c.releaseFetch()

	if msg.Err != nil {
		c.lastErr = msg.Err
		c.pendingAdvance = false
		c.logger.Warn("page fetch failed",
			zap.String("query", msg.Request.Query.Text),
			zap.Int("page", msg.Request.Page),
			zap.Error(msg.Err))
		c.publish(domain.PageFailedEvent{Request: msg.Request, Err: msg.Err})
		return nil
	}

	c.lastErr = nil
	if msg.Page != nil && msg.Page.TotalPages > 0 {
		c.totalPages = msg.Page.TotalPages
	}

	var added int
	c.items, added = Merge(c.items, c.seen, msg.Page)
	received := 0
	if msg.Page != nil {
		received = len(msg.Page.Items)
	}
	c.logger.Debug("page merged",
		zap.String("query", msg.Request.Query.Text),
		zap.Int("page", msg.Request.Page),
		zap.Int("received", received),
		zap.Int("added", added),
		zap.Int("total", len(c.items)))
	c.publish(domain.PageMergedEvent{
		Request:    msg.Request,
		Received:   received,
		Added:      added,
		Total:      len(c.items),
		TotalPages: c.totalPages,
	})

	if msg.Page.Empty() {
		c.exhausted = true
		c.pendingAdvance = false
		c.publish(domain.StreamExhaustedEvent{Request: msg.Request})
		return nil
	}
	c.exhausted = false
	c.attachMarker(added)

	if c.pendingAdvance {
		c.pendingAdvance = false
		c.page++
		return c.startFetch(false)
	}
	return nil
}

// Snapshot returns a copy of the consumer-facing state
func (c *Controller) Snapshot() Snapshot {
	items := make([]domain.ResultItem, len(c.items))
	copy(items, c.items)
	return Snapshot{
		Query:      c.lifecycle.Query.Text,
		Language:   c.lifecycle.Language,
		Items:      items,
		Loading:    c.loading,
		Err:        c.lastErr,
		Page:       c.page,
		TotalPages: c.totalPages,
		Exhausted:  c.exhausted,
	}
}

// Lifecycle returns the identity of the active (query, language) pair
func (c *Controller) Lifecycle() domain.Lifecycle {
	return c.lifecycle
}

// Language returns the active language
func (c *Controller) Language() domain.Language {
	return c.lifecycle.Language
}

// Close ends the session: the trigger is detached and an in-flight fetch is cancelled
func (c *Controller) Close() {
	c.trigger.Detach()
	c.releaseFetch()
	c.loading = false
	c.pendingAdvance = false
}

func (c *Controller) reset(reason string) {
	c.releaseFetch()
	c.trigger.Detach()
	c.lifecycle.Generation++
	c.page = 1
	c.items = nil
	c.seen.Reset()
	c.loading = false
	c.pendingAdvance = false
	c.exhausted = false
	c.lastErr = nil
	c.totalPages = 0
	c.logger.Info("stream reset",
		zap.String("reason", reason),
		zap.String("query", c.lifecycle.Query.Text),
		zap.String("language", c.lifecycle.Language.Code()),
		zap.Uint64("generation", c.lifecycle.Generation))
	c.publish(domain.StreamResetEvent{Lifecycle: c.lifecycle, Reason: reason})
}

func (c *Controller) startFetch(retry bool) tea.Cmd {
	req := domain.PageRequest{
		Lifecycle: c.lifecycle,
		Query:     c.lifecycle.Query,
		Language:  c.lifecycle.Language,
		Page:      c.page,
	}
	c.loading = true
	c.lastErr = nil

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	c.cancel = cancel

	c.logger.Debug("requesting page",
		zap.String("query", req.Query.Text),
		zap.String("language", req.Language.Code()),
		zap.Int("page", req.Page),
		zap.Bool("retry", retry))
	c.publish(domain.PageRequestedEvent{Request: req, Retry: retry})

	fetcher := c.fetcher
	return func() tea.Msg {
		page, err := fetcher.Fetch(ctx, req)
		if err != nil {
			reason := domain.ReasonNetwork
			if errors.Is(ctx.Err(), context.Canceled) {
				reason = domain.ReasonCanceled
			}
			return PageResultMsg{Request: req, Err: domain.NewFetchError(req, reason, err)}
		}
		return PageResultMsg{Request: req, Page: page}
	}
}

func (c *Controller) isCurrent(req domain.PageRequest) bool {
	return c.loading &&
		req.Lifecycle.Generation == c.lifecycle.Generation &&
		req.Page == c.page
}

// attachMarker points the trigger at the new last item. When the page added
// nothing the marker stays the same and is re-armed so a still-visible end of
// list keeps pulling pages.
func (c *Controller) attachMarker(added int) {
	if len(c.items) == 0 {
		c.trigger.Detach()
		return
	}
	m := Marker{Generation: c.lifecycle.Generation, ItemID: c.items[len(c.items)-1].ID}
	c.trigger.Attach(m)
	if added == 0 {
		c.trigger.Rearm()
	}
}

func (c *Controller) releaseFetch() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) publish(event domain.DomainEvent) {
	if c.bus != nil {
		c.bus.Publish(event)
	}
}
