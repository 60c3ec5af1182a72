package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

// NewSettingsCommand constructs the `settings` command group.
func NewSettingsCommand(baseURL BaseURLFunc) *cobra.Command {
	settingsCmd := &cobra.Command{Use: "settings", Short: "Device settings"}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := doHTTP(cmdContext(cmd), http.MethodGet, baseURL()+"/v1/settings", "", nil)
			if err != nil {
				return err
			}
			return printRaw(cmd, body)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update settings; only the flags given are changed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			patch := map[string]any{}
			if cmd.Flags().Changed("device-number") {
				n, _ := cmd.Flags().GetInt("device-number")
				patch["deviceNumber"] = n
			}
			if cmd.Flags().Changed("site-id") {
				s, _ := cmd.Flags().GetString("site-id")
				patch["siteID"] = s
			}
			for flag, key := range map[string]string{
				"system-logs": "enableSystemLogs",
				"http-logs":   "enableHttpLogs",
				"lora-logs":   "enableLoRaLogs",
			} {
				if cmd.Flags().Changed(flag) {
					v, _ := cmd.Flags().GetBool(flag)
					patch[key] = v
				}
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to update")
			}
			b, _ := json.Marshal(patch)
			body, err := doHTTP(cmdContext(cmd), http.MethodPost, baseURL()+"/v1/settings", "application/json", b)
			if err != nil {
				return err
			}
			return printRaw(cmd, body)
		},
	}
	setCmd.Flags().Int("device-number", 0, "Device number")
	setCmd.Flags().String("site-id", "", "Site ID (letters, digits, '-' and '_')")
	setCmd.Flags().Bool("system-logs", true, "Record SYSTEM events")
	setCmd.Flags().Bool("http-logs", true, "Record HTTP events")
	setCmd.Flags().Bool("lora-logs", true, "Record LoRa events")

	settingsCmd.AddCommand(getCmd, setCmd)
	return settingsCmd
}

// NewRadioCommand constructs the `radio` command group.
func NewRadioCommand(baseURL BaseURLFunc) *cobra.Command {
	radioCmd := &cobra.Command{Use: "radio", Short: "LoRa radio"}
	sendCmd := &cobra.Command{
		Use:   "send [MESSAGE]",
		Short: "Transmit a message prefixed with the site ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := ""
			if len(args) == 1 {
				msg = args[0]
			}
			body, err := postForm(cmdContext(cmd), baseURL()+"/sendlora", url.Values{"message": {msg}})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
	radioCmd.AddCommand(sendCmd)
	return radioCmd
}

// NewStatusCommand constructs the `status` command.
func NewStatusCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the device status report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := doHTTP(cmdContext(cmd), http.MethodGet, baseURL()+"/v1/status", "", nil)
			if err != nil {
				return err
			}
			return printRaw(cmd, body)
		},
	}
}

// NewRebootCommand constructs the `reboot` command.
func NewRebootCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reboot",
		Short: "Restart the gateway; the event log starts empty afterwards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := doHTTP(cmdContext(cmd), http.MethodPost, baseURL()+"/reboot", "", nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
}

// printRaw re-indents a JSON body.
func printRaw(cmd *cobra.Command, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}
	return printJSON(cmd.OutOrStdout(), v)
}
