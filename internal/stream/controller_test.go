package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviescroll/internal/domain"
)

// fakeFetcher serves canned pages keyed by query, language code and page number.
// Unknown keys return an empty page.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]*domain.ResultPage
	failures map[string]error
	requests []domain.PageRequest
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    make(map[string]*domain.ResultPage),
		failures: make(map[string]error),
	}
}

func fakeKey(query string, lang domain.Language, page int) string {
	return fmt.Sprintf("%s|%s|%d", query, lang.Code(), page)
}

func (f *fakeFetcher) set(query string, lang domain.Language, page int, p *domain.ResultPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[fakeKey(query, lang, page)] = p
}

func (f *fakeFetcher) fail(query string, lang domain.Language, page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[fakeKey(query, lang, page)] = err
}

func (f *fakeFetcher) heal(query string, lang domain.Language, page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, fakeKey(query, lang, page))
}

func (f *fakeFetcher) Fetch(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := fakeKey(req.Query.Text, req.Language, req.Page)
	if err, ok := f.failures[key]; ok {
		return nil, domain.NewFetchError(req, domain.ReasonStatus, err)
	}
	if p, ok := f.pages[key]; ok {
		return p, nil
	}
	return &domain.ResultPage{Page: req.Page}, nil
}

func (f *fakeFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, fakeKey(r.Query.Text, r.Language, r.Page))
	}
	return out
}

func titledPage(lang domain.Language, ids ...int) *domain.ResultPage {
	p := &domain.ResultPage{TotalPages: 5}
	for _, id := range ids {
		p.Items = append(p.Items, domain.ResultItem{ID: id, Title: fmt.Sprintf("%d-%s", id, lang.Code())})
	}
	return p
}

func newTestController(f Fetcher) *Controller {
	return NewController(context.Background(), Config{Fetcher: f, Language: domain.EnglishUS})
}

// exec runs cmd and returns the page result it produced
func exec(t *testing.T, cmd tea.Cmd) PageResultMsg {
	t.Helper()
	require.NotNil(t, cmd, "expected a fetch command")
	msg, ok := cmd().(PageResultMsg)
	require.True(t, ok, "command must produce a PageResultMsg")
	return msg
}

// drive executes cmd, feeds the result back and keeps going while the controller
// asks for more, returning the number of fetches performed
func drive(t *testing.T, c *Controller, cmd tea.Cmd) int {
	t.Helper()
	n := 0
	for cmd != nil {
		n++
		cmd = c.HandleResult(exec(t, cmd))
	}
	return n
}

func TestSubmitQueryFetchesFirstPageImmediately(t *testing.T) {
	f := newFakeFetcher()
	f.set("Harry Potter", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1, 2, 3))
	c := newTestController(f)

	cmd := c.SubmitQuery("Harry Potter")
	require.True(t, c.Snapshot().Loading)
	drive(t, c, cmd)

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, []int{1, 2, 3}, idsOf(snap.Items))
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 5, snap.TotalPages)
}

func TestSameQueryTwiceFetchesOnce(t *testing.T) {
	f := newFakeFetcher()
	f.set("Matrix", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("Matrix"))
	assert.Nil(t, c.SubmitQuery("Matrix"))

	// also while the first fetch is still in flight
	c2 := newTestController(f)
	cmd := c2.SubmitQuery("Matrix")
	assert.Nil(t, c2.SubmitQuery("Matrix"))
	drive(t, c2, cmd)

	assert.Equal(t, []string{"Matrix|en-US|1", "Matrix|en-US|1"}, f.requested())
}

func TestHarryPotterPagesAreDeduplicatedInOrder(t *testing.T) {
	f := newFakeFetcher()
	f.set("Harry Potter", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1, 2, 3))
	f.set("Harry Potter", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 3, 4))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("Harry Potter"))
	drive(t, c, c.NotifyNearEnd())

	snap := c.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4}, idsOf(snap.Items))
	assert.Equal(t, 2, snap.Page)
}

func TestNearEndWhileLoadingCollapsesToOneAdvance(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	f.set("q", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 2))
	f.set("q", domain.EnglishUS, 3, titledPage(domain.EnglishUS, 3))
	c := newTestController(f)

	first := c.SubmitQuery("q")
	for i := 0; i < 5; i++ {
		assert.Nil(t, c.NotifyNearEnd(), "no second fetch while loading")
	}

	next := c.HandleResult(exec(t, first))
	require.NotNil(t, next, "pending advance must be honoured")
	assert.Nil(t, c.HandleResult(exec(t, next)), "pending advance is consumed once")

	assert.Equal(t, []string{"q|en-US|1", "q|en-US|2"}, f.requested())
	assert.Equal(t, []int{1, 2}, idsOf(c.Snapshot().Items))
}

func TestLanguageChangeRequeriesFromFirstPage(t *testing.T) {
	f := newFakeFetcher()
	f.set("Matrix", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1, 2))
	f.set("Matrix", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 3))
	f.set("Matrix", domain.Russian, 1, titledPage(domain.Russian, 1, 2))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("Matrix"))
	drive(t, c, c.NotifyNearEnd())
	require.Len(t, c.Snapshot().Items, 3)

	cmd := c.SetLanguage(domain.Russian)
	snap := c.Snapshot()
	assert.Empty(t, snap.Items, "items are cleared before repopulating")
	assert.True(t, snap.Loading)
	assert.Equal(t, 1, snap.Page)

	drive(t, c, cmd)
	snap = c.Snapshot()
	assert.Equal(t, []int{1, 2}, idsOf(snap.Items))
	for _, item := range snap.Items {
		assert.Contains(t, item.Title, "ru-RU", "no items from the previous language")
	}
	assert.Equal(t, domain.Russian, snap.Language)
}

func TestSameLanguageIsNoop(t *testing.T) {
	f := newFakeFetcher()
	f.set("Matrix", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	c := newTestController(f)
	drive(t, c, c.SubmitQuery("Matrix"))

	assert.Nil(t, c.SetLanguage(domain.EnglishUS))
	assert.Len(t, c.Snapshot().Items, 1)
}

func TestLanguageChangeWithoutQueryDoesNotFetch(t *testing.T) {
	f := newFakeFetcher()
	c := newTestController(f)

	assert.Nil(t, c.SetLanguage(domain.German))
	assert.Equal(t, domain.German, c.Language())
	assert.Empty(t, f.requested())
}

func TestLanguageSwitchDropsInFlightPage(t *testing.T) {
	f := newFakeFetcher()
	f.set("Matrix", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1, 2))
	f.set("Matrix", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 3, 4))
	f.set("Matrix", domain.Russian, 1, titledPage(domain.Russian, 10, 11))
	c := NewController(context.Background(), Config{Fetcher: FetcherFunc(func(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
		// ignore cancellation so the stale page really arrives
		return f.Fetch(context.Background(), req)
	}), Language: domain.EnglishUS})

	drive(t, c, c.SubmitQuery("Matrix"))
	page2 := c.NotifyNearEnd()
	require.NotNil(t, page2)

	fresh := c.SetLanguage(domain.Russian)
	require.NotNil(t, fresh)

	stale := exec(t, page2)
	require.NoError(t, stale.Err)
	assert.Nil(t, c.HandleResult(stale))
	assert.Empty(t, c.Snapshot().Items, "stale page must not be merged")
	assert.True(t, c.Snapshot().Loading, "stale page must not clear loading of the new lifecycle")

	drive(t, c, fresh)
	assert.Equal(t, []int{10, 11}, idsOf(c.Snapshot().Items))
}

func TestStaleResponseAfterQueryChangeNeverMutatesItems(t *testing.T) {
	f := newFakeFetcher()
	f.set("old", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1, 2))
	f.set("new", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 5))
	c := NewController(context.Background(), Config{Fetcher: FetcherFunc(func(_ context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
		return f.Fetch(context.Background(), req)
	})})

	oldCmd := c.SubmitQuery("old")
	newCmd := c.SubmitQuery("new")

	drive(t, c, newCmd)
	before := idsOf(c.Snapshot().Items)

	assert.Nil(t, c.HandleResult(exec(t, oldCmd)))
	assert.Equal(t, before, idsOf(c.Snapshot().Items))
	assert.Equal(t, []int{5}, before)
}

func TestResetCancelsInFlightFetch(t *testing.T) {
	var seenErr error
	c := NewController(context.Background(), Config{Fetcher: FetcherFunc(func(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
		seenErr = ctx.Err()
		return nil, ctx.Err()
	})})

	oldCmd := c.SubmitQuery("old")
	c.SubmitQuery("new")

	msg := exec(t, oldCmd)
	assert.ErrorIs(t, seenErr, context.Canceled)
	var fe *domain.FetchError
	require.ErrorAs(t, msg.Err, &fe)
	assert.Equal(t, domain.ReasonCanceled, fe.Reason)
	assert.Nil(t, c.HandleResult(msg))
	assert.NoError(t, c.Snapshot().Err, "cancelled stale fetch is not surfaced")
}

func TestFailureKeepsPageAndRetriesSamePage(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	f.set("q", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 2))
	f.fail("q", domain.EnglishUS, 2, errors.New("boom"))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("q"))
	drive(t, c, c.NotifyNearEnd())

	snap := c.Snapshot()
	require.Error(t, snap.Err)
	assert.ErrorIs(t, snap.Err, domain.ErrFetchFailure)
	assert.False(t, snap.Loading)
	assert.Equal(t, 2, snap.Page)

	f.heal("q", domain.EnglishUS, 2)
	drive(t, c, c.NotifyNearEnd())

	snap = c.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, []int{1, 2}, idsOf(snap.Items))
	assert.Equal(t, []string{"q|en-US|1", "q|en-US|2", "q|en-US|2"}, f.requested())
}

func TestFailureClearsPendingAdvance(t *testing.T) {
	f := newFakeFetcher()
	f.fail("q", domain.EnglishUS, 1, errors.New("down"))
	c := newTestController(f)

	cmd := c.SubmitQuery("q")
	c.NotifyNearEnd()
	assert.Nil(t, c.HandleResult(exec(t, cmd)), "failure stops auto-advancing")
	assert.Equal(t, 1, c.Snapshot().Page)
}

func TestExplicitRetry(t *testing.T) {
	f := newFakeFetcher()
	f.fail("q", domain.EnglishUS, 1, errors.New("down"))
	c := newTestController(f)

	assert.Nil(t, c.Retry(), "nothing to retry yet")
	drive(t, c, c.SubmitQuery("q"))
	require.Error(t, c.Snapshot().Err)

	f.heal("q", domain.EnglishUS, 1)
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 9))
	drive(t, c, c.Retry())

	assert.Equal(t, []int{9}, idsOf(c.Snapshot().Items))
	assert.Nil(t, c.Retry(), "no retry after success")
}

func TestEmptyPageExhaustsWithoutSkipping(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("q"))
	cmd := c.NotifyNearEnd()
	c.NotifyNearEnd() // pending while page 2 loads
	assert.Nil(t, c.HandleResult(exec(t, cmd)), "empty page consumes pending without advancing")

	snap := c.Snapshot()
	assert.True(t, snap.Exhausted)
	assert.Equal(t, 2, snap.Page)

	// a further near-end asks for the same page again
	drive(t, c, c.NotifyNearEnd())
	assert.Equal(t, []string{"q|en-US|1", "q|en-US|2", "q|en-US|2"}, f.requested())

	// and the stream resumes if the provider now has results
	f.set("q", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 2))
	drive(t, c, c.NotifyNearEnd())
	snap = c.Snapshot()
	assert.False(t, snap.Exhausted)
	assert.Equal(t, []int{1, 2}, idsOf(snap.Items))
}

func TestEmptyQueryResetsWithoutFetching(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("q"))
	assert.Nil(t, c.SubmitQuery(""))
	assert.Empty(t, c.Snapshot().Items)
	assert.Nil(t, c.NotifyNearEnd())
	assert.Len(t, f.requested(), 1)
}

func TestMarkerVisibilityDrivesPaging(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1, 2))
	f.set("q", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 3))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("q"))
	gen := c.Lifecycle().Generation
	m := Marker{Generation: gen, ItemID: 2}

	assert.Nil(t, c.MarkerVisibility(m, false))
	cmd := c.MarkerVisibility(m, true)
	require.NotNil(t, cmd)
	assert.Nil(t, c.MarkerVisibility(m, true), "still visible, still loading: no new signal")
	drive(t, c, cmd)

	// the old marker is detached once the list grew
	assert.Nil(t, c.MarkerVisibility(m, false))
	assert.Nil(t, c.MarkerVisibility(m, true))

	next := Marker{Generation: gen, ItemID: 3}
	require.NotNil(t, c.MarkerVisibility(next, true))
}

func TestMarkerFromPreviousLifecycleNeverFires(t *testing.T) {
	f := newFakeFetcher()
	f.set("a", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("a"))
	old := Marker{Generation: c.Lifecycle().Generation, ItemID: 1}
	c.SetLanguage(domain.French)

	assert.Nil(t, c.MarkerVisibility(old, true))
}

func TestDuplicateOnlyPageRearmsMarker(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	f.set("q", domain.EnglishUS, 2, titledPage(domain.EnglishUS, 1))
	f.set("q", domain.EnglishUS, 3, titledPage(domain.EnglishUS, 2))
	c := newTestController(f)

	drive(t, c, c.SubmitQuery("q"))
	m := Marker{Generation: c.Lifecycle().Generation, ItemID: 1}
	drive(t, c, c.MarkerVisibility(m, true))
	require.Equal(t, 2, c.Snapshot().Page)

	// page 2 added nothing; the same marker, still visible, pulls page 3
	drive(t, c, c.MarkerVisibility(m, true))
	assert.Equal(t, []int{1, 2}, idsOf(c.Snapshot().Items))
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	c := newTestController(f)
	drive(t, c, c.SubmitQuery("q"))

	snap := c.Snapshot()
	snap.Items[0].ID = 99
	assert.Equal(t, 1, c.Snapshot().Items[0].ID)
}

func TestCloseDropsLateResults(t *testing.T) {
	f := newFakeFetcher()
	f.set("q", domain.EnglishUS, 1, titledPage(domain.EnglishUS, 1))
	c := newTestController(f)

	cmd := c.SubmitQuery("q")
	c.Close()
	assert.Nil(t, c.HandleResult(exec(t, cmd)))
	assert.Empty(t, c.Snapshot().Items)
	assert.False(t, c.Snapshot().Loading)
}
