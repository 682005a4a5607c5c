package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newNotificationsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Read and clear your notifications",
	}

	var unread bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			notes, err := app.client.Notifications(cmd.Context(), unread)
			if err != nil {
				return fmt.Errorf("list notifications: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.render(out, notes, func() error {
				tw := table(out)
				fmt.Fprintln(tw, "ID\tWHEN\tTYPE\tREAD\tMESSAGE")
				for _, n := range notes {
					read := ""
					if n.Read {
						read = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.CreatedAt.Local().Format(time.DateTime), n.Type, dash(read), n.Message)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&unread, "unread", false, "only unread notifications")

	count := &cobra.Command{
		Use:   "count",
		Short: "Print the unread count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			n, err := app.client.UnreadCount(cmd.Context())
			if err != nil {
				return fmt.Errorf("count notifications: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	read := &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			if _, err := app.client.MarkNotificationRead(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("mark read: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Marked read")
			return nil
		},
	}
	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			n, err := app.client.MarkAllNotificationsRead(cmd.Context())
			if err != nil {
				return fmt.Errorf("mark all read: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d read\n", n)
			return nil
		},
	}
	del := &cobra.Command{
		Use:     "delete <notification-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a notification",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			if err := app.client.DeleteNotification(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Notification deleted")
			return nil
		},
	}
	cmd.AddCommand(list, count, read, readAll, del)
	return cmd
}
