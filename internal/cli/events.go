package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/questforge/internal/observability"
)

var (
	eventsType    string
	eventsSession string
	eventsSince   time.Duration
	eventsLimit   int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the wizard event log",
	Long: `Show recorded wizard events: step changes, failed validations, draft
saves, restores and clears, and published quests.

--type accepts an exact type (draft.saved) or a family ending in a dot
(draft.).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not available")
		}

		filter := observability.EventFilter{Type: eventsType, SessionID: eventsSession}
		if eventsSince > 0 {
			since := time.Now().UTC().Add(-eventsSince)
			filter.Since = &since
		}
		events, err := EventLog.Read(filter)
		if err != nil {
			return err
		}
		if eventsLimit > 0 && len(events) > eventsLimit {
			events = events[len(events)-eventsLimit:]
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events.")
			return nil
		}
		for _, e := range events {
			data := ""
			if len(e.Data) > 0 {
				b, _ := json.Marshal(e.Data)
				data = string(b)
			}
			fmt.Fprintf(out, "%s %-5s %-26s %s %s\n", e.Time.Format(time.RFC3339), e.Level, e.Type, e.Message, data)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type or family (e.g. draft.)")
	eventsCmd.Flags().StringVar(&eventsSession, "session", "", "filter by wizard session id")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 0, "only events newer than this (e.g. 24h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "show at most this many recent events (0 for all)")
	rootCmd.AddCommand(eventsCmd)
}
