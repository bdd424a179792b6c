package ui

import (
	"moviescroll/internal/domain"
)

// detailsMsg carries the result of a details lookup
type detailsMsg struct {
	movieID  int
	language domain.Language
	details  *domain.MovieDetails
	err      error
}

// pagerMsg contains the result of showing content in the external pager
type pagerMsg struct {
	err error
}

// clearStatusMsg clears the transient status message
type clearStatusMsg struct{}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
