package viewmodels

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"

	"moviescroll/internal/ui/state"
	"moviescroll/internal/ui/views"
)

// ViewModel transforms application state into view-ready data
type ViewModel struct {
	state            *state.AppState
	width            int
	height           int
	help             help.Model
	keys             views.KeyMap
	spinner          string
	inputTransformer *InputTransformer
}

// NewViewModel creates a new view model
func NewViewModel(appState *state.AppState, textInput textinput.Model) *ViewModel {
	return &ViewModel{
		state:            appState,
		keys:             views.DefaultKeyMap(),
		inputTransformer: NewInputTransformer(textInput),
	}
}

// SetDimensions sets the current terminal dimensions
func (vm *ViewModel) SetDimensions(width, height int) {
	vm.width = width
	vm.height = height
}

// SetHelp sets the help model
func (vm *ViewModel) SetHelp(helpModel help.Model) {
	vm.help = helpModel
}

// SetSpinner sets the current spinner frame
func (vm *ViewModel) SetSpinner(frame string) {
	vm.spinner = frame
}

// SetInputMode sets the current input mode
func (vm *ViewModel) SetInputMode(mode InputMode) {
	vm.inputTransformer.SetMode(mode)
}

// SetInputPrompt sets the prompt of the active text mode
func (vm *ViewModel) SetInputPrompt(prompt string) {
	vm.inputTransformer.SetPrompt(prompt)
}

// UpdateTextInput updates the text input model
func (vm *ViewModel) UpdateTextInput(textInput textinput.Model) {
	vm.inputTransformer.textInput = textInput
}

// BuildViewState creates a ViewState for rendering
func (vm *ViewModel) BuildViewState() views.ViewState {
	snap := vm.state.Stream

	keys := vm.keys
	keys.Retry.SetEnabled(snap.Err != nil)

	vs := views.ViewState{
		Width:            vm.width,
		Height:           vm.height,
		Query:            snap.Query,
		Language:         snap.Language,
		Items:            snap.Items,
		SelectedIndex:    vm.state.SelectedIndex,
		ViewportOffset:   vm.state.ViewportOffset,
		ViewportHeight:   vm.state.ViewportHeight,
		Loading:          snap.Loading,
		Err:              snap.Err,
		Page:             snap.Page,
		TotalPages:       snap.TotalPages,
		Exhausted:        snap.Exhausted,
		StatusMessage:    vm.state.StatusMessage,
		ShowHelp:         vm.state.ShowHelp,
		HelpScrollOffset: vm.state.HelpScrollOffset,
		ShowOverview:     vm.state.ShowOverview,
		ShowDetails:      vm.state.ShowDetails,
		DetailsLoading:   vm.state.DetailsLoading,
		Details:          vm.state.Details,
		DetailsErr:       vm.state.DetailsErr,
		TextInput:        vm.inputTransformer.GetInputText(),
		InputMode:        vm.inputTransformer.GetInputModeString(),
		Spinner:          vm.spinner,
		HelpModel:        vm.help,
		Keys:             keys,
	}
	if item, ok := vm.state.SelectedItem(); ok {
		vs.SelectedItem = &item
	}
	return vs
}
