package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newSignUpCmd(opts *rootOptions) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an email/password account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			application := opts.newApp(cmd)
			if err := application.Start(); err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			res := application.Coordinator().SignUp(cmd.Context(), email, password, name)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return res.Error
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")

	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Send a password reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}

			application := opts.newApp(cmd)
			if err := application.Start(); err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			res := application.Coordinator().ResetPassword(cmd.Context(), email)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return res.Error
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")

	return cmd
}
