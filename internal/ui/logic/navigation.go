package logic

// Navigator handles navigation and viewport management over a flat result list.
// The viewport reserves one row each for the "more above" and "more below"
// indicators when they are shown.
type Navigator struct {
	selectedIndex  int
	viewportOffset int
	viewportHeight int
	totalItems     int
}

// NewNavigator creates a new navigator
func NewNavigator() *Navigator {
	return &Navigator{}
}

// UpdateState updates the navigator's state
func (n *Navigator) UpdateState(selectedIndex, viewportOffset, viewportHeight, totalItems int) {
	n.selectedIndex = selectedIndex
	n.viewportOffset = viewportOffset
	n.viewportHeight = viewportHeight
	n.totalItems = totalItems
}

// GetSelectedIndex returns the current selected index
func (n *Navigator) GetSelectedIndex() int {
	return n.selectedIndex
}

// GetViewportOffset returns the current viewport offset
func (n *Navigator) GetViewportOffset() int {
	return n.viewportOffset
}

// SetSelectedIndex clamps index to the list, scrolls it into view and
// returns the resulting selection and offset.
func (n *Navigator) SetSelectedIndex(index int) (int, int) {
	if index > n.totalItems-1 {
		index = n.totalItems - 1
	}
	if index < 0 {
		index = 0
	}
	n.selectedIndex = index
	n.ensureSelectedVisible()
	return n.selectedIndex, n.viewportOffset
}

// Move shifts the selection by delta rows
func (n *Navigator) Move(delta int) (int, int) {
	return n.SetSelectedIndex(n.selectedIndex + delta)
}

// PageSize is the number of rows a page up/down moves
func (n *Navigator) PageSize() int {
	size := n.viewportHeight - 2 // leave some overlap
	if size < 1 {
		size = 1
	}
	return size
}

// VisibleRange returns the half-open range of item indices currently on screen
func (n *Navigator) VisibleRange() (int, int) {
	if n.totalItems == 0 {
		return 0, 0
	}
	start := n.viewportOffset
	end := start + n.effectiveHeight(start)
	if end > n.totalItems {
		end = n.totalItems
	}
	return start, end
}

// IsVisible reports whether the item at index is on screen
func (n *Navigator) IsVisible(index int) bool {
	start, end := n.VisibleRange()
	return index >= start && index < end
}

// effectiveHeight returns the rows left for items at the given offset once
// the scroll indicators are accounted for
func (n *Navigator) effectiveHeight(offset int) int {
	height := n.viewportHeight
	if offset > 0 {
		height--
	}
	if offset+height < n.totalItems {
		height--
	}
	if height < 1 {
		height = 1
	}
	return height
}

func (n *Navigator) ensureSelectedVisible() {
	if n.selectedIndex < n.viewportOffset {
		n.viewportOffset = n.selectedIndex
	}

	if n.selectedIndex >= n.viewportOffset+n.effectiveHeight(n.viewportOffset) {
		// scroll down until the selection fits; the indicator rows change with the offset
		offset := n.selectedIndex - n.effectiveHeight(n.viewportOffset) + 1
		for offset < n.selectedIndex && n.selectedIndex >= offset+n.effectiveHeight(offset) {
			offset++
		}
		n.viewportOffset = offset
	}

	// never leave empty rows at the bottom when the list could fill them
	for n.viewportOffset > 0 &&
		n.viewportOffset+n.effectiveHeight(n.viewportOffset) > n.totalItems &&
		n.selectedIndex < n.viewportOffset-1+n.effectiveHeight(n.viewportOffset-1) {
		n.viewportOffset--
	}

	if n.viewportOffset < 0 {
		n.viewportOffset = 0
	}
}
