package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChecklistCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Edit a task's checklist",
	}
	add := &cobra.Command{
		Use:   "add <task-id> <text>...",
		Short: "Append a checklist item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			d.SetItemDraft(strings.Join(args[1:], " "))
			return reported(d.AddChecklistItem(cmd.Context()))
		},
	}
	toggle := &cobra.Command{
		Use:   "toggle <task-id> <item-id>",
		Short: "Mark an item done or not done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			return reported(d.ToggleChecklist(cmd.Context(), args[1]))
		},
	}
	remove := &cobra.Command{
		Use:     "remove <task-id> <item-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a checklist item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			return reported(d.RemoveChecklistItem(cmd.Context(), args[1]))
		},
	}
	cmd.AddCommand(add, toggle, remove)
	return cmd
}

func newCommentsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Discuss a task",
	}
	add := &cobra.Command{
		Use:   "add <task-id> <text>...",
		Short: "Post a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			d.SetDraft(strings.Join(args[1:], " "))
			c, err := d.AddComment(cmd.Context())
			if err != nil {
				return reported(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		},
	}
	edit := &cobra.Command{
		Use:   "edit <task-id> <comment-id> <text>...",
		Short: "Rewrite one of your comments",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			return reported(d.EditComment(cmd.Context(), args[1], strings.Join(args[2:], " ")))
		},
	}
	del := &cobra.Command{
		Use:     "delete <task-id> <comment-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a comment",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			return reported(d.DeleteComment(cmd.Context(), args[1]))
		},
	}
	cmd.AddCommand(add, edit, del)
	return cmd
}
