package modes

import (
	"github.com/charmbracelet/bubbles/textinput"

	"moviescroll/internal/ui/input/types"
)

// SearchMode edits the movie query
type SearchMode struct {
	TextInputMode
}

func NewSearchMode(ti *textinput.Model) *SearchMode {
	return &SearchMode{
		TextInputMode: NewTextInputMode(types.ModeSearch, "search", "Search: ", ti),
	}
}
