// Package cli implements pmctl, a terminal client for the projectdesk API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/config"
	"github.com/hongminglow/projectdesk/internal/kv"
	"github.com/hongminglow/projectdesk/internal/optimistic"
	"github.com/hongminglow/projectdesk/internal/session"
)

// App carries what every command needs. It is built once per invocation.
type App struct {
	Config config.ClientConfig
	Logger *zap.Logger
	// Store overrides the SQLite state file, mainly for tests.
	Store kv.Store
	// Output is table, json or yaml.
	Output string

	closer io.Closer
	guard  *session.Guard
	client *apiclient.Client
	co     *optimistic.Coordinator
}

// errSignedOut is returned by commands that need a session.
var errSignedOut = errors.New("not signed in; run 'pmctl login' first")

func (a *App) open(cmd *cobra.Command) error {
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if err := checkFormat(a.Output); err != nil {
		return err
	}
	a.Config.APIURL = strings.TrimRight(strings.TrimSpace(a.Config.APIURL), "/")
	if a.Config.APIURL == "" {
		return errors.New("an API URL is required (--api or PMCTL_API_URL)")
	}
	if a.Store == nil {
		path, err := statePath(a.Config.StatePath)
		if err != nil {
			return err
		}
		db, err := kv.OpenSQLite(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("open state %s: %w", path, err)
		}
		a.Store, a.closer = db, db
	}
	a.guard = session.NewGuard(a.Store, nil, a.Logger)
	a.client = apiclient.New(a.Config.APIURL, a.guard,
		apiclient.WithTimeout(a.Config.Timeout),
		apiclient.WithLogger(a.Logger),
		apiclient.WithSessionExpired(func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "session expired; run 'pmctl login' again")
		}),
	)
	a.guard.Bind(a.client)
	a.co = optimistic.New(optimistic.WriterNotifier{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}, a.Logger)
	return nil
}

func (a *App) close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// statePath defaults to <user config dir>/projectdesk/state.db.
func statePath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	dir = filepath.Join(dir, "projectdesk")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "state.db"), nil
}

// signedIn hydrates the stored session and fails when there is none.
func (a *App) signedIn(ctx context.Context) (*session.Session, error) {
	st := a.guard.Hydrate(ctx)
	if st.Err != nil {
		return nil, fmt.Errorf("restore session: %w", st.Err)
	}
	if st.Session == nil {
		return nil, errSignedOut
	}
	return st.Session, nil
}

// NewRootCommand assembles the pmctl command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "pmctl",
		Short: "Terminal client for projectdesk",
		Long: `pmctl signs in to a projectdesk backend and manages projects, tasks,
comments, team invitations and notifications from the terminal.
Superadmins also get the admin commands.

The session is kept in a local state file (PMCTL_STATE_PATH) and the API
location is read from PMCTL_API_URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd)
		},
	}
	root.PersistentFlags().StringVar(&app.Config.APIURL, "api", app.Config.APIURL, "API base URL")
	root.PersistentFlags().StringVarP(&app.Output, "output", "o", formatTable, "output format: table, json or yaml")

	root.AddCommand(
		newLoginCommand(app),
		newRegisterCommand(app),
		newAcceptInviteCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newRouteCommand(app),
		newProjectCommand(app),
		newTasksCommand(app),
		newChecklistCommand(app),
		newCommentsCommand(app),
		newMembersCommand(app),
		newInvitesCommand(app),
		newProfileCommand(app),
		newNotificationsCommand(app),
		newAdminCommand(app),
	)
	return root
}
