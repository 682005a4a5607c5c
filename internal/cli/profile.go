package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongminglow/projectdesk/internal/models/dto"
)

func newProfileCommand(app *App) *cobra.Command {
	var (
		target string
		fields dto.ProfileUpdateRequest
		values = map[string]*string{}
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Edit your profile, or a team member's as the owner",
		Long: `profile changes only the fields given as flags. Owners may pass --user
to edit an employee of their project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			set := map[string]**string{
				"name":             &fields.Name,
				"job-title":        &fields.JobTitle,
				"department":       &fields.Department,
				"phone":            &fields.Phone,
				"description":      &fields.Description,
				"responsibilities": &fields.Responsibilities,
				"skills":           &fields.Skills,
				"shift":            &fields.Shift,
				"avatar":           &fields.Avatar,
			}
			changed := 0
			for flag, dst := range set {
				if cmd.Flags().Changed(flag) {
					*dst = values[flag]
					changed++
				}
			}
			if changed == 0 {
				return errors.New("nothing to change; pass at least one field flag")
			}
			if target == "" {
				target = s.User.ID
			}
			u, err := app.client.UpdateProfile(cmd.Context(), target, fields)
			if err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
			if u.ID == s.User.ID {
				if err := app.guard.UpdateUser(cmd.Context(), u); err != nil {
					return fmt.Errorf("save session: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "user", "", "user id to edit (default: yourself)")
	for _, f := range []struct{ name, usage string }{
		{"name", "display name"},
		{"job-title", "job title"},
		{"department", "department"},
		{"phone", "phone number"},
		{"description", "short bio"},
		{"responsibilities", "responsibilities"},
		{"skills", "skills"},
		{"shift", "morning, afternoon, night or flexible"},
		{"avatar", "avatar image URL"},
	} {
		v := new(string)
		values[f.name] = v
		cmd.Flags().StringVar(v, f.name, "", f.usage)
	}
	return cmd
}
