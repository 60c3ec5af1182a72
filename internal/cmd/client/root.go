package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the lorabridge client.
// It registers the events, settings, radio, status and reboot commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "lorabridge",
		Short: "lorabridge client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands registers the client commands on an existing root.
func AddCommands(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(
		NewEventsCommand(baseURL),
		NewSettingsCommand(baseURL),
		NewRadioCommand(baseURL),
		NewStatusCommand(baseURL),
		NewRebootCommand(baseURL),
	)
}
