package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	transports "github.com/rzbill/lorabridge/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewEventsCommand constructs the `events` command group and subcommands.
func NewEventsCommand(baseURL BaseURLFunc) *cobra.Command {
	eventsCmd := &cobra.Command{Use: "events", Short: "Event log operations"}
	eventsCmd.PersistentFlags().String("transport", "grpc", "Transport: grpc|http")
	eventsCmd.AddCommand(
		newEventsListCommand(baseURL),
		newEventsTailCommand(baseURL),
		newEventsAppendCommand(baseURL),
	)
	return eventsCmd
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().String("filter", "", "CEL filter over seq, type, message, src_ip, dest_ip, timestamp")
	cmd.Flags().StringSlice("type", nil, "Restrict to categories: SYSTEM, HTTP, LoRa")
	cmd.Flags().Uint64("since", 0, "Only records with seq greater than this")
	cmd.Flags().Int("limit", 0, "Maximum number of records (0 = all)")
}

func listRequest(cmd *cobra.Command) transports.ListRequest {
	filter, _ := cmd.Flags().GetString("filter")
	types, _ := cmd.Flags().GetStringSlice("type")
	since, _ := cmd.Flags().GetUint64("since")
	limit, _ := cmd.Flags().GetInt("limit")
	return transports.ListRequest{Filter: filter, Types: types, Since: since, Limit: limit}
}

func transportFor(cmd *cobra.Command, baseURL BaseURLFunc) (transports.EventsTransport, error) {
	kind, _ := cmd.Flags().GetString("transport")
	return getTransport(kind, baseURL)
}

// newEventsListCommand constructs the `events list` subcommand.
func newEventsListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the retained events, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			events, err := tr.List(cmdContext(cmd), listRequest(cmd))
			if err != nil {
				return err
			}
			if asJSON {
				if events == nil {
					events = []transports.Event{}
				}
				return printJSON(cmd.OutOrStdout(), events)
			}
			for _, ev := range events {
				printEvent(cmd.OutOrStdout(), ev)
			}
			return nil
		},
	}
	addListFlags(listCmd)
	listCmd.Flags().Bool("json", false, "Print as JSON")
	return listCmd
}

// newEventsTailCommand constructs the `events tail` subcommand.
func newEventsTailCommand(baseURL BaseURLFunc) *cobra.Command {
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow new events until interrupted or --limit is reached",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			from, _ := cmd.Flags().GetString("from")
			if from != "earliest" && from != "latest" {
				return fmt.Errorf("invalid --from %q; use earliest|latest", from)
			}
			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
			defer stop()
			req := transports.TailRequest{ListRequest: listRequest(cmd), From: from}
			return tr.Tail(ctx, req, func(ev transports.Event) error {
				printEvent(cmd.OutOrStdout(), ev)
				return nil
			})
		},
	}
	addListFlags(tailCmd)
	tailCmd.Flags().String("from", "latest", "Start position: earliest|latest")
	return tailCmd
}

// newEventsAppendCommand constructs the `events append` subcommand.
func newEventsAppendCommand(baseURL BaseURLFunc) *cobra.Command {
	appendCmd := &cobra.Command{
		Use:   "append MESSAGE",
		Short: "Append an event (gRPC only)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			typ, _ := cmd.Flags().GetString("type")
			src, _ := cmd.Flags().GetString("src")
			dst, _ := cmd.Flags().GetString("dst")
			ev := transports.Event{Type: typ, Message: strings.Join(args, " "), SrcIP: src, DestIP: dst}
			if err := tr.Append(cmdContext(cmd), ev); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "appended")
			return nil
		},
	}
	appendCmd.Flags().String("type", "SYSTEM", "Category: SYSTEM, HTTP, LoRa")
	appendCmd.Flags().String("src", "", "Source address (HTTP events)")
	appendCmd.Flags().String("dst", "", "Destination address (HTTP events)")
	return appendCmd
}

// printEvent writes one line in the dashboard's log format.
func printEvent(w io.Writer, ev transports.Event) {
	if ev.SrcIP != "" || ev.DestIP != "" {
		fmt.Fprintf(w, "%d [%s] [%s] %s -> %s: %s\n", ev.Seq, ev.Timestamp, ev.Type, ev.SrcIP, ev.DestIP, ev.Message)
		return
	}
	fmt.Fprintf(w, "%d [%s] [%s] %s\n", ev.Seq, ev.Timestamp, ev.Type, ev.Message)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
