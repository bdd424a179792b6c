package types

// Navigation actions
type NavigateAction struct {
	Direction string // "up", "down", "pageup", "pagedown", "home", "end"
}

func (a NavigateAction) Type() string { return "navigate" }

// Mode transition actions
type ChangeModeAction struct {
	Mode Mode
	Data string // initial text for text modes
}

func (a ChangeModeAction) Type() string { return "change_mode" }

// Text input actions
type UpdateTextAction struct {
	Text string
}

func (a UpdateTextAction) Type() string { return "update_text" }

type SubmitTextAction struct {
	Text string
	Mode Mode // Which mode submitted the text
}

func (a SubmitTextAction) Type() string { return "submit_text" }

type CancelTextAction struct{}

func (a CancelTextAction) Type() string { return "cancel_text" }

// Stream actions
type CycleLanguageAction struct{}

func (a CycleLanguageAction) Type() string { return "cycle_language" }

type RetryAction struct{}

func (a RetryAction) Type() string { return "retry" }

type ClearQueryAction struct{}

func (a ClearQueryAction) Type() string { return "clear_query" }

// Display actions
type OpenDetailsAction struct {
	MovieID int
}

func (a OpenDetailsAction) Type() string { return "open_details" }

type ToggleOverviewAction struct{}

func (a ToggleOverviewAction) Type() string { return "toggle_overview" }

type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

type HideAction struct{}

func (a HideAction) Type() string { return "hide" }

type QuitAction struct {
	Force bool // true for Ctrl+C, false for 'q'
}

func (a QuitAction) Type() string { return "quit" }
