package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the events known to the registration API",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			events, err := client.ListEvents(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if openOnly {
				kept := events[:0]
				for _, ev := range events {
					if ev.Open {
						kept = append(kept, ev)
					}
				}
				events = kept
			}
			return writeOut(cmd, app, map[string]any{"data": events})
		},
	}
	listCmd.Flags().BoolVar(&openOnly, "open", false, "Only events open for registration")

	cmd.AddCommand(listCmd)
	return cmd
}
