package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

func newMembersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage the project team",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List project members",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			resp, err := app.client.ListMembers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list members: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.render(out, resp, func() error {
				tw := table(out)
				fmt.Fprintln(tw, "USER ID\tNAME\tEMAIL\tROLE\tSTATUS\tMEMBERSHIP")
				for _, m := range resp.Members {
					role := string(m.Role)
					if m.IsOwner {
						role = "owner"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Email, role, m.Status, dash(m.MembershipID))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "%d members, %d active, %d inactive\n", resp.Total, resp.Active, resp.Inactive)
				return nil
			})
		},
	}
	deactivate := &cobra.Command{
		Use:   "deactivate <membership-id>",
		Short: "Remove an employee from the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			if _, err := app.client.DeactivateMember(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deactivate member: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Member deactivated")
			return nil
		},
	}
	cmd.AddCommand(list, deactivate)
	return cmd
}

func newInvitesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invites",
		Aliases: []string{"invite"},
		Short:   "Invite employees to the project",
	}

	var req dto.InviteRequest
	send := &cobra.Command{
		Use:   "send <email>",
		Short: "Invite an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			req.Email = args[0]
			inv, err := app.client.SendInvite(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("send invite: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invited %s, token %s, expires %s\n", inv.Email, inv.Token, inv.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
	send.Flags().StringVar(&req.JobTitle, "job-title", "", "job title for the new employee")
	send.Flags().StringVar(&req.Department, "department", "", "department for the new employee")

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			invites, err := app.client.ListInvites(cmd.Context(), models.InviteStatus(status))
			if err != nil {
				return fmt.Errorf("list invites: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.render(out, invites, func() error {
				tw := table(out)
				fmt.Fprintln(tw, "ID\tEMAIL\tSTATUS\tRESENT\tEXPIRES")
				for _, inv := range invites {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", inv.ID, inv.Email, inv.Status, inv.ResendCount, inv.ExpiresAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "pending, accepted, expired or cancelled")

	resend := &cobra.Command{
		Use:   "resend <invite-id>",
		Short: "Issue a fresh token for an invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			inv, err := app.client.ResendInvite(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("resend invite: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resent to %s, token %s\n", inv.Email, inv.Token)
			return nil
		},
	}
	cancel := &cobra.Command{
		Use:   "cancel <invite-id>",
		Short: "Withdraw a pending invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			if err := app.client.CancelInvite(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("cancel invite: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Invitation cancelled")
			return nil
		},
	}
	check := &cobra.Command{
		Use:   "check <token>",
		Short: "Show what an invitation token grants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.client.ValidateInvite(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("check invite: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is invited to %s until %s\n", v.Email, v.ProjectName, v.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.AddCommand(send, list, resend, cancel, check)
	return cmd
}
