package cli

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/authkit/internal/app"
	"github.com/aussiebroadwan/authkit/pkg/authsdk"
)

// stateEvent is one line of watch output.
type stateEvent struct {
	State authsdk.State      `json:"state,omitempty"`
	User  *authsdk.User      `json:"user,omitempty"`
	Error *authsdk.AuthError `json:"error,omitempty"`
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var flags signInFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sign in and report session changes until interrupted",
		Long: `watch signs in, then keeps the session alive with the background token
refresh and prints every state change and error as JSON until interrupted.
Set metrics_addr to expose Prometheus metrics meanwhile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var mu sync.Mutex
			emit := func(ev stateEvent) {
				mu.Lock()
				defer mu.Unlock()
				_ = printJSON(out, ev)
			}

			appOpts := append(flags.appOptions(), app.WithCallbacks(authsdk.Callbacks{
				OnAuthStateChanged: func(state authsdk.State, user *authsdk.User) {
					emit(stateEvent{State: state, User: user})
				},
				OnError: func(err *authsdk.AuthError) {
					emit(stateEvent{Error: err})
				},
			}))

			application := opts.newApp(cmd, appOpts...)
			if err := application.Start(); err != nil {
				return err
			}

			res, err := flags.signIn(ctx, application.Coordinator())
			if err != nil {
				_ = application.Shutdown()
				return err
			}
			if !res.Success {
				_ = application.Shutdown()
				return res.Error
			}

			application.Logger().Info("watching session, interrupt to stop",
				"refresh_interval", opts.cfg.RefreshInterval)

			<-ctx.Done()
			return application.Shutdown()
		},
	}

	flags.register(cmd)

	return cmd
}
