package ui

import (
	"moviescroll/internal/stream"
)

// viewportSource is the terminal's stand-in for an intersection observer.
// The controller tells it which marker to watch; after every update the model
// asks it for the watched marker and reports whether that row is on screen.
type viewportSource struct {
	marker   stream.Marker
	watching bool
}

func newViewportSource() *viewportSource {
	return &viewportSource{}
}

// Observe implements stream.VisibilitySource
func (v *viewportSource) Observe(m stream.Marker) {
	v.marker = m
	v.watching = true
}

// Unobserve implements stream.VisibilitySource
func (v *viewportSource) Unobserve(m stream.Marker) {
	if v.watching && v.marker == m {
		v.watching = false
		v.marker = stream.Marker{}
	}
}

// Watched returns the marker currently being observed
func (v *viewportSource) Watched() (stream.Marker, bool) {
	return v.marker, v.watching
}
