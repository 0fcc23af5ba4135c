package consts

const (
	AppName = "notespanel"

	// DefaultSelectionPrefix is concatenated with the display ordinal to get
	// the name of the coordination channel.
	DefaultSelectionPrefix = "XFCE_NOTES_SELECTION"

	// DefaultCommand is the activation command that toggles the windows.
	DefaultCommand = "XFCE_NOTES_MESSAGE"

	DefaultWindowName = "Notes"
)
