package input

import (
	"strings"

	"moviescroll/internal/ui/state"
)

// ModelContext implements the Context interface for the input handler
type ModelContext struct {
	State *state.AppState
}

// CurrentIndex returns the current selected index
func (c *ModelContext) CurrentIndex() int {
	return c.State.SelectedIndex
}

// TotalItems returns the number of accumulated results
func (c *ModelContext) TotalItems() int {
	return c.State.ItemCount()
}

// HasQuery reports whether a non-blank query is active
func (c *ModelContext) HasQuery() bool {
	return strings.TrimSpace(c.State.Stream.Query) != ""
}

// Query returns the active query text
func (c *ModelContext) Query() string {
	return c.State.Stream.Query
}

// CurrentItemID returns the movie id under the cursor
func (c *ModelContext) CurrentItemID() int {
	item, ok := c.State.SelectedItem()
	if !ok {
		return 0
	}
	return item.ID
}

// HasError reports whether the last page fetch failed
func (c *ModelContext) HasError() bool {
	return c.State.Stream.Err != nil
}
