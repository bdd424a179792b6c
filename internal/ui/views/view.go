package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"moviescroll/internal/domain"
)

// ReservedLines is the number of rows the frame around the result list takes:
// container padding, title, query line, two spacers, status and help.
const ReservedLines = 8

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width            int
	Height           int
	Query            string
	Language         domain.Language
	Items            []domain.ResultItem
	SelectedIndex    int
	ViewportOffset   int
	ViewportHeight   int
	Loading          bool
	Err              error
	Page             int
	TotalPages       int
	Exhausted        bool
	StatusMessage    string
	ShowHelp         bool
	HelpScrollOffset int
	ShowOverview     bool
	ShowDetails      bool
	DetailsLoading   bool
	Details          *domain.MovieDetails
	DetailsErr       error
	SelectedItem     *domain.ResultItem
	InputMode        string
	TextInput        string
	Spinner          string
	HelpModel        help.Model
	Keys             KeyMap
}

// Renderer handles all view rendering
type Renderer struct {
	styles      *Styles
	movieRender *MovieRenderer
	popupRender *PopupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:      styles,
		movieRender: NewMovieRenderer(styles),
		popupRender: NewPopupRenderer(styles),
	}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	innerWidth := termWidth - 4 // container padding

	content.WriteString(r.renderTitleLine(state, innerWidth))
	content.WriteString("\n")

	if state.InputMode != "" {
		content.WriteString(state.TextInput)
	} else if strings.TrimSpace(state.Query) != "" {
		content.WriteString(r.styles.Dim.Render("Query: "))
		content.WriteString(r.styles.Query.Render(state.Query))
	} else {
		content.WriteString(r.styles.Dim.Render("Press / to search for movies"))
	}
	content.WriteString("\n\n")

	content.WriteString(r.renderMain(state, innerWidth))

	// push status and help to the bottom
	availableLines := state.Height - 2
	if availableLines <= 0 {
		availableLines = 22
	}
	currentLines := strings.Count(content.String(), "\n") + 1
	if padding := availableLines - currentLines - 2; padding > 0 {
		content.WriteString(strings.Repeat("\n", padding))
	}

	content.WriteString("\n")
	content.WriteString(r.renderStatusLine(state, innerWidth))
	content.WriteString("\n")
	state.HelpModel.Width = innerWidth
	content.WriteString(state.HelpModel.View(state.Keys))

	finalContent := r.styles.Main.MaxHeight(state.Height).Render(content.String())

	if state.ShowDetails {
		detailsContent := r.RenderDetailsContent(state)
		return r.popupRender.RenderPopupOverlay(finalContent, detailsContent, state.Height, state.Width, r.styles.DetailsBox)
	}

	if state.ShowHelp {
		helpContent := r.renderHelpPopup(state.Height, state.HelpScrollOffset)
		return r.popupRender.RenderPopupOverlay(finalContent, helpContent, state.Height, state.Width, r.styles.HelpBox)
	}

	return finalContent
}

// renderTitleLine renders the logo with the loading indicator and language right-aligned
func (r *Renderer) renderTitleLine(state ViewState, width int) string {
	logo := r.styles.Title.Render("moviescroll")

	var indicators []string
	if state.Loading {
		indicators = append(indicators, r.styles.Dim.Render(fmt.Sprintf("%s Loading page %d", state.Spinner, state.Page)))
	}
	indicators = append(indicators, r.styles.Language.Render("["+state.Language.Name()+"]"))
	right := strings.Join(indicators, "  ")

	padding := width - lipgloss.Width(logo) - lipgloss.Width(right)
	if padding < 2 {
		padding = 2
	}
	return logo + strings.Repeat(" ", padding) + right
}

// renderMain renders the result list or a placeholder when there is nothing to list
func (r *Renderer) renderMain(state ViewState, width int) string {
	if len(state.Items) > 0 {
		return r.renderResultList(state, width)
	}

	switch {
	case strings.TrimSpace(state.Query) == "":
		return r.styles.Dim.Render("Type a title, e.g. Harry Potter or The Matrix.")
	case state.Loading:
		return r.styles.Dim.Render("Searching...")
	case state.Err != nil:
		return r.styles.Dim.Render("Nothing loaded yet.")
	case state.Exhausted:
		return r.styles.Dim.Render(fmt.Sprintf("No movies found for %q.", state.Query))
	default:
		return ""
	}
}

// renderResultList renders the visible window of the result list with scroll indicators
func (r *Renderer) renderResultList(state ViewState, width int) string {
	total := len(state.Items)
	height := state.ViewportHeight
	if height < 1 {
		height = 1
	}

	offset := state.ViewportOffset
	if offset > total-1 {
		offset = total - 1
	}
	if offset < 0 {
		offset = 0
	}

	needsTopIndicator := offset > 0
	effectiveHeight := height
	if needsTopIndicator {
		effectiveHeight--
	}
	needsBottomIndicator := offset+effectiveHeight < total
	if needsBottomIndicator {
		effectiveHeight--
	}
	if effectiveHeight < 1 {
		effectiveHeight = 1
	}

	var lines []string
	if needsTopIndicator {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more above ↑", offset)))
	}

	end := offset + effectiveHeight
	if end > total {
		end = total
	}
	for i := offset; i < end; i++ {
		lines = append(lines, r.movieRender.RenderMovie(state.Items[i], i == state.SelectedIndex, state.Query, state.ShowOverview, width))
	}

	if needsBottomIndicator {
		below := total - end
		if below < 0 {
			below = 0
		}
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more below ↓", below)))
	}

	return strings.Join(lines, "\n")
}

// renderStatusLine renders paging progress, stream state and transient messages
func (r *Renderer) renderStatusLine(state ViewState, width int) string {
	var parts []string

	if state.Page > 0 {
		pages := fmt.Sprintf("Page %d", state.Page)
		if state.TotalPages > 0 {
			pages = fmt.Sprintf("Page %d/%d", state.Page, state.TotalPages)
		}
		parts = append(parts, r.styles.Status.Render(pages))
	}
	if len(state.Items) > 0 {
		parts = append(parts, r.styles.Status.Render(fmt.Sprintf("%d movies", len(state.Items))))
	}

	switch {
	case state.Err != nil:
		parts = append(parts, r.styles.StatusError.Render(fmt.Sprintf("⚠ %s (press r to retry)", describeError(state.Err))))
	case state.Exhausted && len(state.Items) > 0:
		parts = append(parts, r.styles.StatusSuccess.Render("End of results"))
	}

	if state.StatusMessage != "" {
		parts = append(parts, r.styles.StatusWarning.Render(state.StatusMessage))
	}

	line := strings.Join(parts, r.styles.Dim.Render(" · "))
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

// describeError turns a fetch failure into a short user-facing message
func describeError(err error) string {
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		return err.Error()
	}
	switch fe.Reason {
	case domain.ReasonRateLimited:
		return fmt.Sprintf("Rate limited loading page %d", fe.Request.Page)
	case domain.ReasonNetwork:
		return fmt.Sprintf("Network error loading page %d", fe.Request.Page)
	case domain.ReasonMalformed:
		return fmt.Sprintf("Unexpected response for page %d", fe.Request.Page)
	case domain.ReasonCanceled:
		return fmt.Sprintf("Request for page %d was canceled", fe.Request.Page)
	default:
		return fmt.Sprintf("Could not load page %d: %v", fe.Request.Page, fe.Cause)
	}
}

// RenderDetailsContent renders the body of the details popup or pager
func (r *Renderer) RenderDetailsContent(state ViewState) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	var b strings.Builder
	item := state.SelectedItem
	details := state.Details

	title := ""
	if details != nil && details.Title != "" {
		title = details.Title
	} else if item != nil {
		title = item.Title
	}
	if item != nil && item.Year() > 0 {
		title = fmt.Sprintf("%s (%d)", title, item.Year())
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if details != nil && details.Tagline != "" {
		b.WriteString(r.styles.Dim.Render(details.Tagline))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if item != nil && item.VoteCount > 0 {
		b.WriteString(fmt.Sprintf("%s %.1f (%d votes)\n", labelStyle.Render("Rating:  "), item.Rating, item.VoteCount))
	}
	if details != nil {
		if details.Runtime > 0 {
			b.WriteString(fmt.Sprintf("%s %dh %02dm\n", labelStyle.Render("Runtime: "), details.Runtime/60, details.Runtime%60))
		}
		if len(details.Genres) > 0 {
			b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Genres:  "), strings.Join(details.Genres, ", ")))
		}
		if details.Director != "" {
			b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Director:"), details.Director))
		}
	}
	if item != nil && item.PosterPath != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Poster:  "), item.PosterURL()))
	}

	switch {
	case state.DetailsLoading:
		b.WriteString("\n")
		b.WriteString(r.styles.Dim.Render(state.Spinner + " Loading details..."))
		b.WriteString("\n")
	case state.DetailsErr != nil:
		b.WriteString("\n")
		b.WriteString(r.styles.StatusError.Render("Details unavailable: " + describeError(state.DetailsErr)))
		b.WriteString("\n")
	}

	overview := ""
	if details != nil && details.Overview != "" {
		overview = details.Overview
	} else if item != nil {
		overview = item.Overview
	}
	if overview != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(64).Render(overview))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(r.styles.Help.Render("esc to close · p to open in pager"))
	return b.String()
}

// renderHelpPopup returns the scrolled window of the help text for the popup
func (r *Renderer) renderHelpPopup(height int, scrollOffset int) string {
	lines := strings.Split(RenderHelpContent(), "\n")
	totalLines := len(lines)

	// popup border and padding plus the overlay margin
	visibleHeight := height - 8
	if visibleHeight < 5 {
		visibleHeight = 5
	}

	if totalLines > visibleHeight {
		maxOffset := totalLines - visibleHeight
		if scrollOffset > maxOffset {
			scrollOffset = maxOffset
		}
		if scrollOffset < 0 {
			scrollOffset = 0
		}

		endLine := scrollOffset + visibleHeight
		lines = lines[scrollOffset:endLine]

		if scrollOffset > 0 {
			lines[0] = r.styles.Scroll.Render("↑ (more above)")
		}
		if endLine < totalLines {
			lines[len(lines)-1] = r.styles.Scroll.Render("↓ (more below)")
		}
	}

	return strings.Join(lines, "\n")
}

// RenderHelpContent renders the full help text, shared by the popup and the pager
func RenderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	row := func(keys, desc string) string {
		return "  " + keyStyle.Width(12).Render(keys) + " " + descStyle.Render(desc) + "\n"
	}

	var help strings.Builder

	help.WriteString(titleStyle.Render("moviescroll help"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Navigation"))
	help.WriteString("\n")
	help.WriteString(row("↑/↓, j/k", "Move up/down"))
	help.WriteString(row("PgUp/PgDn", "Page up/down (also ctrl+u/ctrl+d)"))
	help.WriteString(row("gg/G", "Go to top/bottom"))
	help.WriteString(descStyle.Render("  More results load as the last movie scrolls into view."))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Search"))
	help.WriteString("\n")
	help.WriteString(row("/, s", "Edit the query (enter to search, esc to cancel)"))
	help.WriteString(row("x", "Clear the query"))
	help.WriteString(row("tab, L", "Switch result language"))
	help.WriteString(row("r", "Retry after a failed page"))

	help.WriteString(sectionStyle.Render("Movies"))
	help.WriteString("\n")
	help.WriteString(row("enter", "Show details"))
	help.WriteString(row("p", "Open details or help in the pager"))
	help.WriteString(row("o", "Toggle overview snippets"))

	help.WriteString(sectionStyle.Render("Other"))
	help.WriteString("\n")
	help.WriteString(row("?", "Toggle this help"))
	help.WriteString(row("esc", "Close popups"))
	help.WriteString(strings.TrimSuffix(row("q", "Quit"), "\n"))

	return help.String()
}
