package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"regdesk/internal/api"
	"regdesk/internal/cache"
	"regdesk/internal/format"
	"regdesk/internal/store"
	"regdesk/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	API        string
	Token      string
	Dir        string
	Event      string
	Link       string
	PrettyJSON bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "regdesk",
		Short:        "Registration management console (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive console
  regdesk --api https://reg.example.org --token $REGDESK_TOKEN

  # Scriptable commands
  regdesk events list
  regdesk applicants list --query kim --paid UNPAID

  # Start an import and wait for it
  regdesk import start registrations.xlsx --wait
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive console.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.API, "api", envOr("REGDESK_API", ""), "Base URL of the registration API")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("REGDESK_TOKEN", ""), "Bearer token for the registration API")
	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("REGDESK_DIR", ""), "Workspace dir for UI state and cache (default: ~/.regdesk)")
	cmd.PersistentFlags().StringVar(&app.Event, "event", envOr("REGDESK_EVENT", ""), "Event id(s) to scope to, comma separated (default: first open event)")
	cmd.PersistentFlags().StringVar(&app.Link, "link", "", "Deep-link query string to open the console at (page/q/field/paid/sort/selection)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newApplicantsCmd(app))
	cmd.AddCommand(newImportCmd(app))

	return cmd
}

func runTUI(app *App) error {
	client, err := app.client()
	if err != nil {
		return err
	}
	ws := app.workspace()
	if err := ws.Ensure(); err != nil {
		return err
	}

	defaultEvent := firstScopedEvent(app.Event)
	if defaultEvent == "" {
		ev, err := pickDefaultEvent(context.Background(), client)
		if err != nil {
			return err
		}
		defaultEvent = ev
	}

	return tui.Run(tui.Config{
		Client:         client,
		Workspace:      ws,
		DefaultEventID: defaultEvent,
		Cache:          app.openCache(ws),
		Link:           app.Link,
	})
}

func (app *App) client() (*api.Client, error) {
	if strings.TrimSpace(app.API) == "" {
		return nil, errors.New("no API base URL; pass --api or set REGDESK_API")
	}
	return api.New(app.API, app.Token), nil
}

func (app *App) workspace() store.Store {
	dir := app.Dir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".regdesk")
		}
	}
	return store.Store{Dir: dir}
}

// openCache prefers the durable sqlite cache in the workspace dir and falls
// back to an in-process cache when it cannot be opened.
func (app *App) openCache(ws store.Store) cache.Cache {
	if ws.Dir != "" {
		if c, err := cache.OpenSQLite(context.Background(), ws.CachePath(), cache.DefaultTTL); err == nil {
			return c
		}
	}
	return cache.NewMemory(cache.DefaultTTL)
}

// pickDefaultEvent resolves the scope seed when --event is not given: the
// first open event, else the first event at all.
func pickDefaultEvent(ctx context.Context, client *api.Client) (string, error) {
	events, err := client.ListEvents(ctx)
	if err != nil {
		return "", fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return "", errors.New("the registration API reports no events")
	}
	for _, ev := range events {
		if ev.Open {
			return ev.ID, nil
		}
	}
	return events[0].ID, nil
}

// scopedEventIDs splits the --event flag into ids.
func scopedEventIDs(flag string) []string {
	var ids []string
	for _, part := range strings.Split(flag, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func firstScopedEvent(flag string) string {
	if ids := scopedEventIDs(flag); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteJSON(cmd.OutOrStdout(), v, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
