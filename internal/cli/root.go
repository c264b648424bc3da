// Package cli contains the authdemo commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/authkit/internal/app"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

type rootOptions struct {
	cfgFile string
	verbose bool
	cfg     app.Config
}

// NewRootCmd builds the authdemo command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "authdemo",
		Short: "Exercise the authkit session coordinator from the command line",
		Long: `authdemo drives an authkit session coordinator against the hosted identity backend.

Configuration is read from --config (or ./authkit.yaml) and AUTHKIT_* environment
variables. AUTHKIT_API_KEY is required.

Example usage:
  authdemo signin --email me@example.com --password secret
  authdemo signin --provider google --google-id-token "$TOKEN"
  authdemo signup --email me@example.com --password secret --name "Me"
  authdemo reset --email me@example.com
  authdemo watch --email me@example.com --password secret`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./authkit.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newSignInCmd(opts),
		newSignUpCmd(opts),
		newResetCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// newApp builds an Application that logs to the command's stderr.
func (o *rootOptions) newApp(cmd *cobra.Command, opts ...app.Option) *app.Application {
	logger := slogx.New(slogx.Config{
		Service: "authdemo",
		Version: app.BuildVersion,
		Env:     o.cfg.Env,
		Level:   o.cfg.LogLevel,
		Format:  o.cfg.LogFormat,
		Writer:  cmd.ErrOrStderr(),
	})
	return app.New(o.cfg, append([]app.Option{app.WithLogger(logger)}, opts...)...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion)
			return err
		},
	}
}
