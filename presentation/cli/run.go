package cli

import (
	"context"
	"errors"
	"fmt"

	"ethertap/application/logging"
	"ethertap/domain/app"
	infraLogging "ethertap/infrastructure/logging"
	"ethertap/infrastructure/tap"
	"ethertap/presentation/runners/bridge"
	"ethertap/presentation/signals/shutdown"
	"ethertap/presentation/ui/dashboard"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCommand(opts *options, env environment) *cobra.Command {
	var tui bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the tap and bridge it to the configured peers",
		Long: `Open the tap for the configured network, bind the UDP ports and carry
frames to and from every peer until interrupted.

Examples:
  ethertap run -c /etc/ethertap/ethertap.yaml
  ethertap run -c ethertap.yaml --tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBridge(cmd.Context(), opts, env, tui)
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "show the live dashboard")
	return cmd
}

func runBridge(ctx context.Context, opts *options, env environment, tui bool) error {
	if !env.elevation.IsElevated() {
		return fmt.Errorf("%s must be run with admin privileges. %s", app.Name, env.elevation.Hint())
	}
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	var logs *dashboard.LogBuffer
	var log logging.Logger
	if tui {
		logs = dashboard.NewLogBuffer(0)
		log = infraLogging.NewLogrusLoggerWithConsole(cfg.Log, logs)
	} else {
		log = infraLogging.NewLogrusLogger(cfg.Log)
	}

	provisioner, err := env.newProvisioner(cfg.Tap.Environment())
	if err != nil {
		return fmt.Errorf("failed to set up tap driver: %w", err)
	}
	factory := tap.NewFactory(cfg.Tap.Environment(), provisioner, log)
	runner := bridge.NewRunner(bridge.NewDependencies(cfg, factory, env.lookup, log))

	appCtx, appCtxCancel := context.WithCancel(ctx)
	defer appCtxCancel()
	shutdown.NewHandler(appCtx, appCtxCancel, env.signalProvider, env.notifier, log).Handle()

	if !tui {
		return runner.Run(appCtx)
	}

	// Fail-fast: whichever side stops first takes the other one down.
	g, gctx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		defer appCtxCancel()
		return runner.Run(gctx)
	})
	g.Go(func() error {
		err := env.runDashboard(gctx, dashboard.Options{Source: runner.Status, LogFeed: logs})
		appCtxCancel()
		if errors.Is(err, dashboard.ErrExitRequested) {
			return nil
		}
		return err
	})
	return g.Wait()
}
