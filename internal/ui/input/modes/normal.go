package modes

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"moviescroll/internal/ui/input/types"
)

const doubleKeyWindow = 500 * time.Millisecond

type NormalMode struct {
	lastKeyWasG bool
	lastGTime   time.Time
	now         func() time.Time
}

func NewNormalMode() *NormalMode {
	return &NormalMode{now: time.Now}
}

func (m *NormalMode) Name() string {
	return "normal"
}

func (m *NormalMode) Enter(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) Exit(ctx types.Context) []types.Action {
	return nil
}

func (m *NormalMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return []types.Action{types.QuitAction{Force: true}}, true

	case tea.KeyEsc:
		return []types.Action{types.HideAction{}}, true

	case tea.KeyUp:
		return navigate("up"), true

	case tea.KeyDown:
		return navigate("down"), true

	case tea.KeyPgUp, tea.KeyCtrlU:
		return navigate("pageup"), true

	case tea.KeyPgDown, tea.KeyCtrlD:
		return navigate("pagedown"), true

	case tea.KeyHome:
		return navigate("home"), true

	case tea.KeyEnd:
		return navigate("end"), true

	case tea.KeyTab:
		return []types.Action{types.CycleLanguageAction{}}, true

	case tea.KeyEnter:
		if id := ctx.CurrentItemID(); id != 0 {
			return []types.Action{types.OpenDetailsAction{MovieID: id}}, true
		}
		return nil, false
	}

	switch msg.String() {
	case "j":
		return navigate("down"), true

	case "k":
		return navigate("up"), true

	case "/", "s":
		return []types.Action{types.ChangeModeAction{Mode: types.ModeSearch, Data: ctx.Query()}}, true

	case "L":
		return []types.Action{types.CycleLanguageAction{}}, true

	case "r":
		if ctx.HasError() {
			return []types.Action{types.RetryAction{}}, true
		}
		return nil, false

	case "x":
		if ctx.HasQuery() {
			return []types.Action{types.ClearQueryAction{}}, true
		}
		return nil, false

	case "o":
		return []types.Action{types.ToggleOverviewAction{}}, true

	case "?":
		return []types.Action{types.ToggleHelpAction{}}, true

	case "q":
		return []types.Action{types.QuitAction{Force: false}}, true

	case "g":
		now := m.now()
		if m.lastKeyWasG && now.Sub(m.lastGTime) < doubleKeyWindow {
			m.lastKeyWasG = false
			return navigate("home"), true
		}
		m.lastKeyWasG = true
		m.lastGTime = now
		return nil, true

	case "G":
		m.lastKeyWasG = false
		return navigate("end"), true
	}

	m.lastKeyWasG = false
	return nil, false
}

func navigate(direction string) []types.Action {
	return []types.Action{types.NavigateAction{Direction: direction}}
}
