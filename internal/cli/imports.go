package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regdesk/internal/api"
	"regdesk/internal/progress"

	"github.com/spf13/cobra"
)

const importPollInterval = 700 * time.Millisecond

func newImportCmd(app *App) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Manage server-side registration imports",
	}

	startCmd := &cobra.Command{
		Use:   "start <file>",
		Short: "Upload a registration sheet and start an import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			eventID := firstScopedEvent(app.Event)
			if eventID == "" {
				eventID, err = pickDefaultEvent(cmd.Context(), client)
				if err != nil {
					return writeErr(cmd, err)
				}
			}
			job, err := client.StartImport(cmd.Context(), eventID, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !wait {
				return writeOut(cmd, app, map[string]any{"data": job})
			}
			status, err := waitForImport(cmd, client, job.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"id":   job.ID,
				"done": status.Done,
			}})
		},
	}
	startCmd.Flags().BoolVar(&wait, "wait", false, "Poll until the import finishes")

	statusCmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show an import job's completion state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			status, err := client.GetImportStatus(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": status})
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of an import job",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := client.CancelImport(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"cancelRequested": true}})
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.AddCommand(startCmd)
	cmd.AddCommand(statusCmd)
	cmd.AddCommand(cancelCmd)
	return cmd
}

// waitForImport polls the job while rendering the time-based estimate on
// stderr so stdout stays machine-readable.
func waitForImport(cmd *cobra.Command, client *api.Client, jobID string) (*api.ImportStatus, error) {
	est := progress.NewEstimator()
	est.Start()

	out := cmd.ErrOrStderr()
	ticker := progress.StartTicker(progress.DefaultTickInterval, func() {
		fmt.Fprintf(out, "\rimporting… %3.0f%%", est.Tick())
	})
	defer func() {
		ticker.Stop()
		fmt.Fprint(out, "\r")
	}()

	ctx := cmd.Context()
	for {
		status, err := client.GetImportStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.Done {
			// Stop ticking before touching the estimator from this
			// goroutine; Stop waits out any in-flight callback.
			ticker.Stop()
			if status.Error != "" {
				return nil, errors.New("import failed: " + status.Error)
			}
			est.Complete()
			fmt.Fprintf(out, "\rimporting… %3.0f%%\n", est.Value())
			return status, nil
		}
		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		case <-time.After(importPollInterval):
		}
	}
}
