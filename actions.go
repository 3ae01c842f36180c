package main

// ActionDefinition defines an action with its default keybindings and description
type ActionDefinition struct {
	Name        string
	Keys        []string
	Description string
}

// actionDefinitions contains all action definitions with default keybindings and descriptions
var actionDefinitions = []ActionDefinition{
	{"exit", []string{"Escape", "KeyQ"}, "Quit application"},
	{"info", []string{"KeyI"}, "Show/hide info display"},
	{"scroll_up", []string{"ArrowUp", "ArrowLeft"}, "Scroll up one step"},
	{"scroll_down", []string{"ArrowDown", "ArrowRight", "Space"}, "Scroll down one step"},
	{"page_backward", []string{"PageUp"}, "Scroll backward two thirds of a screen"},
	{"page_forward", []string{"PageDown"}, "Scroll forward two thirds of a screen"},
	{"fullscreen", []string{"Enter", "KeyF"}, "Toggle fullscreen"},
	{"toggle_crop", []string{"KeyC"}, "Toggle white borders crop"},
	{"cycle_scaling", []string{"KeyS"}, "Cycle scaling mode (screen/width/height/original)"},
	{"toggle_landscape_zoom", []string{"KeyL"}, "Toggle landscape page zoom"},
	{"zoom_reset", []string{"Key0"}, "Reset zoom on the current page"},
}

// InputActions is what keybound actions can do to the application
type InputActions interface {
	Exit()
	ToggleInfo()
	ScrollStepUp()
	ScrollStepDown()
	PageBackward()
	PageForward()
	ToggleFullscreen()
	ToggleCrop()
	CycleScaling()
	ToggleLandscapeZoom()
	ZoomReset()
}

// ExecuteAction dispatches the given action to the InputActions interface.
// Returns false for unknown actions.
func ExecuteAction(action string, actions InputActions) bool {
	switch action {
	case "exit":
		actions.Exit()
	case "info":
		actions.ToggleInfo()
	case "scroll_up":
		actions.ScrollStepUp()
	case "scroll_down":
		actions.ScrollStepDown()
	case "page_backward":
		actions.PageBackward()
	case "page_forward":
		actions.PageForward()
	case "fullscreen":
		actions.ToggleFullscreen()
	case "toggle_crop":
		actions.ToggleCrop()
	case "cycle_scaling":
		actions.CycleScaling()
	case "toggle_landscape_zoom":
		actions.ToggleLandscapeZoom()
	case "zoom_reset":
		actions.ZoomReset()
	default:
		return false
	}

	return true
}

// GetActionDescriptions returns a map of action names to their descriptions
func GetActionDescriptions() map[string]string {
	descriptions := make(map[string]string)
	for _, action := range actionDefinitions {
		descriptions[action.Name] = action.Description
	}
	return descriptions
}

// GetDefaultKeybindings returns a map of action names to their default keybindings
func GetDefaultKeybindings() map[string][]string {
	keybindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		keybindings[action.Name] = action.Keys
	}
	return keybindings
}
