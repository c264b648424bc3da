package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/authkit/internal/app"
	"github.com/aussiebroadwan/authkit/pkg/authsdk"
)

// signInFlags are shared by signin and watch.
type signInFlags struct {
	provider           string
	email              string
	password           string
	googleIDToken      string
	appleIdentityToken string
}

func (f *signInFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "password", "sign-in method: password, google or apple")
	cmd.Flags().StringVar(&f.email, "email", "", "account email (password provider)")
	cmd.Flags().StringVar(&f.password, "password", "", "account password (password provider)")
	cmd.Flags().StringVar(&f.googleIDToken, "google-id-token", "", "Google ID token to exchange (google provider)")
	cmd.Flags().StringVar(&f.appleIdentityToken, "apple-identity-token", "", "Apple identity token to exchange (apple provider)")
}

// appOptions supplies the federated SDK stand-ins for the chosen provider.
func (f *signInFlags) appOptions() []app.Option {
	return []app.Option{
		app.WithGoogleSignIn(&app.StaticGoogleSignIn{IDToken: f.googleIDToken}),
		app.WithAppleSignIn(&app.StaticAppleSignIn{IdentityToken: f.appleIdentityToken}),
	}
}

func (f *signInFlags) signIn(ctx context.Context, coord *authsdk.Coordinator) (authsdk.Result, error) {
	switch f.provider {
	case "password":
		return coord.SignInWithPassword(ctx, f.email, f.password), nil
	case "google":
		return coord.SignInWithGoogle(ctx), nil
	case "apple":
		return coord.SignInWithApple(ctx), nil
	default:
		return authsdk.Result{}, fmt.Errorf("unknown provider %q (must be password, google or apple)", f.provider)
	}
}

func newSignInCmd(opts *rootOptions) *cobra.Command {
	var (
		flags  signInFlags
		claims bool
	)

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and print the resulting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			application := opts.newApp(cmd, flags.appOptions()...)
			if err := application.Start(); err != nil {
				return err
			}
			defer func() { _ = application.Shutdown() }()

			coord := application.Coordinator()
			res, err := flags.signIn(ctx, coord)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return res.Error
			}

			if claims {
				tokenClaims, err := coord.TokenClaims(ctx)
				if err != nil {
					return fmt.Errorf("reading token claims: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), tokenClaims)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&claims, "claims", false, "also print the ID token claims")

	return cmd
}
