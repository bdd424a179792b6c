package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// PopupRenderer handles popup/modal rendering
type PopupRenderer struct {
	styles *Styles
}

// NewPopupRenderer creates a new popup renderer
func NewPopupRenderer(styles *Styles) *PopupRenderer {
	return &PopupRenderer{
		styles: styles,
	}
}

// RenderPopupOverlay renders a popup centered on top of the greyed-out main content
func (pr *PopupRenderer) RenderPopupOverlay(mainContent, popupContent string, height, width int, popupStyle lipgloss.Style) string {
	styledPopup := popupStyle.Render(popupContent)

	// keep a small margin around the modal
	if maxW := width - 6; maxW > 0 && lipgloss.Width(styledPopup) > maxW {
		styledPopup = lipgloss.NewStyle().MaxWidth(maxW).Render(styledPopup)
	}
	if maxH := height - 4; maxH > 0 && lipgloss.Height(styledPopup) > maxH {
		styledPopup = lipgloss.NewStyle().MaxHeight(maxH).Render(styledPopup)
	}

	modalW := lipgloss.Width(styledPopup)
	modalH := lipgloss.Height(styledPopup)
	x := max((width-modalW)/2, 0)
	y := max((height-modalH)/2, 0)

	base := strings.Split(desaturateANSI(mainContent), "\n")
	for len(base) < y+modalH {
		base = append(base, "")
	}

	for i, popupLine := range strings.Split(styledPopup, "\n") {
		base[y+i] = overlayLine(base[y+i], popupLine, x, modalW)
	}
	return strings.Join(base, "\n")
}

const resetSGR = "\x1b[0m"

// overlayLine replaces the cells [x, x+w) of line with popup
func overlayLine(line, popup string, x, w int) string {
	if pad := x + w - ansi.StringWidth(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	left := ansi.Truncate(line, x, "")
	right := ansi.TruncateLeft(line, x+w, "")
	if pw := ansi.StringWidth(popup); pw < w {
		popup += strings.Repeat(" ", w-pw)
	}
	return left + resetSGR + popup + resetSGR + right
}

// desaturateANSI strips ANSI color/style codes and recolors text dim gray
func desaturateANSI(s string) string {
	gray := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	lines := strings.Split(ansi.Strip(s), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = gray.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
