package stream

// Marker identifies the trailing item of the rendered list within one lifecycle
type Marker struct {
	Generation uint64
	ItemID     int
}

// VisibilitySource is the capability that watches markers and reports when they
// become visible. Reports arrive through Trigger.Visibility.
type VisibilitySource interface {
	Observe(m Marker)
	Unobserve(m Marker)
}

// Trigger turns visibility reports for the attached marker into near-end signals.
// It fires once per not-visible to visible transition and ignores reports for
// markers it is no longer attached to.
type Trigger struct {
	source   VisibilitySource
	marker   Marker
	attached bool
	visible  bool
}

// NewTrigger creates a trigger backed by source. A nil source is allowed and
// means visibility is reported purely through Visibility.
func NewTrigger(source VisibilitySource) *Trigger {
	return &Trigger{source: source}
}

// Attach moves the trigger to m. Attaching to the current marker is a no-op.
func (t *Trigger) Attach(m Marker) {
	if t.attached && t.marker == m {
		return
	}
	t.Detach()
	t.marker = m
	t.attached = true
	t.visible = false
	if t.source != nil {
		t.source.Observe(m)
	}
}

// Detach stops watching the current marker and drops any half-seen transition
func (t *Trigger) Detach() {
	if !t.attached {
		return
	}
	if t.source != nil {
		t.source.Unobserve(t.marker)
	}
	t.attached = false
	t.visible = false
	t.marker = Marker{}
}

// Rearm forgets that the attached marker was seen, so the next visible report fires again
func (t *Trigger) Rearm() {
	t.visible = false
}

// Marker returns the attached marker and whether there is one
func (t *Trigger) Marker() (Marker, bool) {
	return t.marker, t.attached
}

// Visibility records the visibility of m and reports whether a near-end signal should fire
func (t *Trigger) Visibility(m Marker, visible bool) bool {
	if !t.attached || m != t.marker {
		return false
	}
	fire := visible && !t.visible
	t.visible = visible
	return fire
}
