package state

import (
	"moviescroll/internal/domain"
	"moviescroll/internal/stream"
)

// AppState contains all the application state the UI owns.
// Result data itself lives in the stream controller; Stream is the copy
// taken after the last update.
type AppState struct {
	Stream stream.Snapshot

	// Selection state
	SelectedIndex int

	// UI state
	ViewportOffset   int // offset for scrolling
	ViewportHeight   int // rows available for the result list
	ShowHelp         bool
	HelpScrollOffset int
	ShowOverview     bool
	StatusMessage    string

	// Details popup
	ShowDetails    bool
	DetailsLoading bool
	Details        *domain.MovieDetails
	DetailsErr     error

	// SearchDraft mirrors the search box while it is being edited
	SearchDraft string
}

// NewAppState creates a new application state
func NewAppState() *AppState {
	return &AppState{
		ViewportHeight: 20,
	}
}

// ItemCount returns the number of accumulated results
func (s *AppState) ItemCount() int {
	return len(s.Stream.Items)
}

// SelectedItem returns the highlighted result, if any
func (s *AppState) SelectedItem() (domain.ResultItem, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Stream.Items) {
		return domain.ResultItem{}, false
	}
	return s.Stream.Items[s.SelectedIndex], true
}

// ResetSelection moves back to the top of a fresh result list
func (s *AppState) ResetSelection() {
	s.SelectedIndex = 0
	s.ViewportOffset = 0
}

// CloseDetails hides the details popup and forgets its content
func (s *AppState) CloseDetails() {
	s.ShowDetails = false
	s.DetailsLoading = false
	s.Details = nil
	s.DetailsErr = nil
}

// HasPopup reports whether any popup covers the list
func (s *AppState) HasPopup() bool {
	return s.ShowHelp || s.ShowDetails
}
