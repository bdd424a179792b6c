package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"moviescroll/internal/domain"
)

// MovieRenderer handles rendering of result rows
type MovieRenderer struct {
	styles *Styles
}

// NewMovieRenderer creates a new movie renderer
func NewMovieRenderer(styles *Styles) *MovieRenderer {
	return &MovieRenderer{styles: styles}
}

// RenderMovie renders one result as a single line no wider than width
func (r *MovieRenderer) RenderMovie(item domain.ResultItem, isSelected bool, query string, showOverview bool, width int) string {
	bg := lipgloss.NewStyle()
	if isSelected {
		bg = r.styles.SelectionBg
	}

	var parts []string

	marker := "  "
	if isSelected {
		marker = r.styles.Highlight.Inherit(bg).Render("▶ ")
	}
	parts = append(parts, marker)

	rating := "  – "
	if item.VoteCount > 0 {
		rating = fmt.Sprintf("%4.1f", item.Rating)
	}
	ratingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(RatingColor(item.Rating))).Inherit(bg)
	parts = append(parts, ratingStyle.Render(rating), bg.Render("  "))

	title := item.Title
	if title == "" {
		title = item.OriginalTitle
	}
	parts = append(parts, r.highlightMatch(title, query, r.styles.Highlight.Inherit(bg), bg))

	if year := item.Year(); year > 0 {
		parts = append(parts, r.styles.Year.Inherit(bg).Render(fmt.Sprintf(" (%d)", year)))
	}

	if item.OriginalTitle != "" && item.OriginalTitle != item.Title {
		parts = append(parts, r.styles.Dim.Inherit(bg).Render(" · "+item.OriginalTitle))
	}

	if showOverview && item.Overview != "" {
		parts = append(parts, r.styles.Overview.Inherit(bg).Render(" - "+oneLine(item.Overview)))
	}

	line := strings.Join(parts, "")
	if width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

// highlightMatch highlights the first case-insensitive occurrence of query within text
func (r *MovieRenderer) highlightMatch(text, query string, highlightStyle, normalStyle lipgloss.Style) string {
	query = strings.TrimSpace(query)
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	// byte offsets are only meaningful when lowering kept the lengths
	if query == "" || len(lowerText) != len(text) || len(lowerQuery) != len(query) {
		return normalStyle.Render(text)
	}

	index := strings.Index(lowerText, lowerQuery)
	if index == -1 {
		return normalStyle.Render(text)
	}

	before := text[:index]
	match := text[index : index+len(query)]
	after := text[index+len(query):]

	var result []string
	if before != "" {
		result = append(result, normalStyle.Render(before))
	}
	result = append(result, highlightStyle.Render(match))
	if after != "" {
		result = append(result, normalStyle.Render(after))
	}

	return strings.Join(result, "")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
