package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"moviescroll/internal/config"
	"moviescroll/internal/domain"
	"moviescroll/internal/eventbus"
	"moviescroll/internal/stream"
	"moviescroll/internal/ui/input"
	inputtypes "moviescroll/internal/ui/input/types"
	"moviescroll/internal/ui/logic"
	"moviescroll/internal/ui/state"
	"moviescroll/internal/ui/viewmodels"
	"moviescroll/internal/ui/views"
)

const (
	detailsTimeout  = 10 * time.Second
	statusLifetime  = 3 * time.Second
	wheelScrollRows = 3
)

// DetailsFetcher looks up the full record of a single movie
type DetailsFetcher interface {
	Details(ctx context.Context, id int, lang domain.Language) (*domain.MovieDetails, error)
}

// Options configures a Model
type Options struct {
	Context      context.Context
	Fetcher      stream.Fetcher
	Details      DetailsFetcher // optional
	Bus          eventbus.EventBus
	Logger       *zap.Logger
	Language     domain.Language
	InitialQuery string
	FetchTimeout time.Duration
	Settings     config.UISettings
	Pager        Pager // optional, popups are used without one
}

// Model represents the UI state
type Model struct {
	ctx    context.Context
	bus    eventbus.EventBus
	logger *zap.Logger
	state  *state.AppState

	width       int
	height      int
	help        help.Model
	spinner     spinner.Model
	inPagerMode bool

	generation   uint64 // lifecycle the selection belongs to
	detailsID    int
	initialQuery string

	controller   *stream.Controller
	source       *viewportSource
	details      DetailsFetcher
	pager        Pager
	navigator    *logic.Navigator
	renderer     *views.Renderer
	viewModel    *viewmodels.ViewModel
	inputHandler *input.Handler
}

// NewModel creates a new UI model together with the stream controller it drives
func NewModel(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	appState := state.NewAppState()
	appState.ShowOverview = opts.Settings.ShowOverview

	source := newViewportSource()
	controller := stream.NewController(ctx, stream.Config{
		Fetcher:  opts.Fetcher,
		Language: opts.Language,
		Source:   source,
		Bus:      opts.Bus,
		Logger:   logger,
		Timeout:  opts.FetchTimeout,
	})

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &Model{
		ctx:          ctx,
		bus:          opts.Bus,
		logger:       logger.Named("ui"),
		state:        appState,
		help:         help.New(),
		spinner:      spin,
		initialQuery: opts.InitialQuery,
		controller:   controller,
		source:       source,
		details:      opts.Details,
		pager:        opts.Pager,
		navigator:    logic.NewNavigator(),
		renderer:     views.NewRenderer(),
		inputHandler: input.New(),
	}
	m.viewModel = viewmodels.NewViewModel(appState, *m.inputHandler.GetTextInput())
	m.viewModel.SetHelp(m.help)
	m.refreshStream()
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	if ops, ok := m.pager.(*PagerOps); ok {
		ops.SetProgram(p)
	}
}

// Language returns the language of the active stream
func (m *Model) Language() domain.Language {
	return m.controller.Language()
}

// Query returns the active query text
func (m *Model) Query() string {
	return m.controller.Lifecycle().Query.Text
}

// Close releases the stream controller
func (m *Model) Close() {
	m.controller.Close()
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	cmd := m.controller.SubmitQuery(m.initialQuery)
	m.refreshStream()
	return tea.Batch(m.spinner.Tick, cmd)
}

// Update handles messages. After every message the stream snapshot is
// refreshed and the visibility of the trailing row is reported.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.refreshStream()
	visibilityCmd := m.syncVisibility()
	return m, tea.Batch(cmd, visibilityCmd)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewModel.SetHelp(m.help)
		m.updateViewportHeight()
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.state.HasPopup() || msg.Action != tea.MouseActionPress {
			return nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveSelection(-wheelScrollRows)
		case tea.MouseButtonWheelDown:
			m.moveSelection(wheelScrollRows)
		}
		return nil

	case stream.PageResultMsg:
		return m.controller.HandleResult(msg)

	case detailsMsg:
		return m.handleDetails(msg)

	case spinner.TickMsg:
		if m.inPagerMode {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case pagerMsg:
		if msg.err != nil {
			// the popup stays open as the fallback
			m.logger.Warn("pager failed, keeping popup", zap.Error(msg.err))
			return nil
		}
		m.state.ShowHelp = false
		m.state.CloseDetails()
		return nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m.spinner.Tick

	case clearStatusMsg:
		m.state.StatusMessage = ""
		return nil

	default:
		if cmd := m.inputHandler.Update(msg); cmd != nil {
			m.syncTextInput()
			return cmd
		}
		return nil
	}
}

// handleKey routes keys to the open popup first and then to the input handler
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.state.ShowDetails {
		switch msg.String() {
		case "esc", "q", "enter":
			m.state.CloseDetails()
		case "p":
			return m.openPager(m.detailsContent())
		case "ctrl+c":
			return m.quit()
		}
		return nil
	}

	if m.state.ShowHelp {
		switch msg.String() {
		case "esc", "?", "q":
			m.state.ShowHelp = false
			m.state.HelpScrollOffset = 0
		case "j", "down":
			m.state.HelpScrollOffset++
		case "k", "up":
			if m.state.HelpScrollOffset > 0 {
				m.state.HelpScrollOffset--
			}
		case "p":
			return m.openPager(views.RenderHelpContent())
		case "ctrl+c":
			return m.quit()
		}
		return nil
	}

	ctx := &input.ModelContext{State: m.state}
	actions, cmd := m.inputHandler.HandleKey(msg, ctx)

	cmds := []tea.Cmd{cmd}
	for _, action := range actions {
		cmds = append(cmds, m.processAction(action))
	}
	m.syncTextInput()
	return tea.Batch(cmds...)
}

// processAction processes an action from the input handler
func (m *Model) processAction(action inputtypes.Action) tea.Cmd {
	switch a := action.(type) {
	case inputtypes.NavigateAction:
		m.navigate(a.Direction)

	case inputtypes.UpdateTextAction:
		m.state.SearchDraft = a.Text

	case inputtypes.CancelTextAction:
		m.state.SearchDraft = ""

	case inputtypes.SubmitTextAction:
		m.state.SearchDraft = ""
		if a.Mode == inputtypes.ModeSearch {
			return m.controller.SubmitQuery(a.Text)
		}

	case inputtypes.ClearQueryAction:
		return m.controller.SubmitQuery("")

	case inputtypes.CycleLanguageAction:
		next := m.controller.Language().Next()
		cmd := m.controller.SetLanguage(next)
		return tea.Batch(cmd, m.setStatus(fmt.Sprintf("Language: %s", next.Name())))

	case inputtypes.RetryAction:
		return m.controller.Retry()

	case inputtypes.OpenDetailsAction:
		return m.openDetails(a.MovieID)

	case inputtypes.ToggleOverviewAction:
		m.state.ShowOverview = !m.state.ShowOverview

	case inputtypes.ToggleHelpAction:
		m.state.ShowHelp = !m.state.ShowHelp
		m.state.HelpScrollOffset = 0
		if m.state.ShowHelp && m.pager != nil {
			return m.openPager(views.RenderHelpContent())
		}

	case inputtypes.HideAction:
		m.state.StatusMessage = ""

	case inputtypes.QuitAction:
		return m.quit()
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.controller.Close()
	return tea.Quit
}

// openDetails shows the details popup for id and starts the lookup
func (m *Model) openDetails(id int) tea.Cmd {
	m.state.CloseDetails()
	m.state.ShowDetails = true
	m.detailsID = id
	if m.details == nil {
		if m.pager != nil {
			return m.openPager(m.detailsContent())
		}
		return nil
	}
	m.state.DetailsLoading = true

	lang := m.controller.Language()
	fetcher := m.details
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, detailsTimeout)
		defer cancel()
		details, err := fetcher.Details(ctx, id, lang)
		return detailsMsg{movieID: id, language: lang, details: details, err: err}
	}
}

func (m *Model) handleDetails(msg detailsMsg) tea.Cmd {
	if m.bus != nil {
		m.bus.Publish(domain.DetailsLoadedEvent{MovieID: msg.movieID, Language: msg.language, Err: msg.err})
	}
	// the popup was closed or moved on to another movie
	if !m.state.ShowDetails || msg.movieID != m.detailsID {
		return nil
	}
	m.state.DetailsLoading = false
	if msg.err != nil {
		m.logger.Warn("details lookup failed", zap.Int("movie", msg.movieID), zap.Error(msg.err))
		m.state.DetailsErr = msg.err
		return nil
	}
	m.state.Details = msg.details
	if m.pager != nil {
		return m.openPager(m.detailsContent())
	}
	return nil
}

// detailsContent renders the details of the selected movie for the pager
func (m *Model) detailsContent() string {
	return m.renderer.RenderDetailsContent(m.viewModel.BuildViewState())
}

// openPager shows content in the external pager, falling back to the open popup
func (m *Model) openPager(content string) tea.Cmd {
	if m.pager == nil {
		return m.setStatus("No pager available")
	}
	pager := m.pager
	return tea.Sequence(
		func() tea.Msg { return pauseRenderingMsg{} },
		func() tea.Msg { return pagerMsg{err: pager.Show(content)} },
		func() tea.Msg { return resumeRenderingMsg{} },
	)
}

func (m *Model) setStatus(message string) tea.Cmd {
	m.state.StatusMessage = message
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// refreshStream copies the controller state into the app state. A new
// lifecycle starts at the top of the list.
func (m *Model) refreshStream() {
	m.state.Stream = m.controller.Snapshot()
	if gen := m.controller.Lifecycle().Generation; gen != m.generation {
		m.generation = gen
		m.state.ResetSelection()
	}
	m.ensureSelectedVisible()
}

// syncVisibility reports whether the watched trailing row is on screen
func (m *Model) syncVisibility() tea.Cmd {
	marker, ok := m.source.Watched()
	if !ok {
		return nil
	}
	index := m.indexOfItem(marker.ItemID)
	visible := m.height > 0 && index >= 0 && m.navigator.IsVisible(index)
	cmd := m.controller.MarkerVisibility(marker, visible)
	if cmd != nil {
		m.state.Stream = m.controller.Snapshot()
	}
	return cmd
}

func (m *Model) indexOfItem(id int) int {
	items := m.state.Stream.Items
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) syncTextInput() {
	if ti := m.inputHandler.TextInput(); ti != nil {
		m.viewModel.UpdateTextInput(*ti)
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.inPagerMode {
		return ""
	}

	m.viewModel.SetDimensions(m.width, m.height)
	m.viewModel.SetSpinner(m.spinner.View())

	switch m.inputHandler.CurrentMode() {
	case inputtypes.ModeSearch:
		m.viewModel.SetInputMode(viewmodels.InputModeSearch)
	default:
		m.viewModel.SetInputMode(viewmodels.InputModeNormal)
	}
	m.viewModel.SetInputPrompt(m.inputHandler.Prompt())
	if ti := m.inputHandler.TextInput(); ti != nil {
		m.viewModel.UpdateTextInput(*ti)
	}

	return m.renderer.Render(m.viewModel.BuildViewState())
}

func (m *Model) updateViewportHeight() {
	m.state.ViewportHeight = m.height - views.ReservedLines
	if m.state.ViewportHeight < 1 {
		m.state.ViewportHeight = 1
	}
	m.ensureSelectedVisible()
}

// syncNavigatorState updates the navigator with current model state
func (m *Model) syncNavigatorState() {
	m.navigator.UpdateState(
		m.state.SelectedIndex,
		m.state.ViewportOffset,
		m.state.ViewportHeight,
		m.state.ItemCount(),
	)
}

// ensureSelectedVisible ensures the selected item is visible in the viewport
func (m *Model) ensureSelectedVisible() {
	m.syncNavigatorState()
	m.state.SelectedIndex, m.state.ViewportOffset = m.navigator.SetSelectedIndex(m.state.SelectedIndex)
}

func (m *Model) moveSelection(delta int) {
	m.syncNavigatorState()
	m.state.SelectedIndex, m.state.ViewportOffset = m.navigator.Move(delta)
}

func (m *Model) navigate(direction string) {
	switch direction {
	case "up":
		m.moveSelection(-1)
	case "down":
		m.moveSelection(1)
	case "pageup":
		m.moveSelection(-m.navigator.PageSize())
	case "pagedown":
		m.moveSelection(m.navigator.PageSize())
	case "home":
		m.state.SelectedIndex = 0
		m.ensureSelectedVisible()
	case "end":
		m.state.SelectedIndex = m.state.ItemCount() - 1
		m.ensureSelectedVisible()
	}
}
