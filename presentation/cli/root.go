// Package cli implements the ethertap commands on top of cobra.
package cli

import (
	"context"
	"net"

	application "ethertap/application/network/tap"
	"ethertap/domain/app"
	"ethertap/infrastructure/PAL/pal_factory"
	palSignal "ethertap/infrastructure/PAL/signal"
	"ethertap/infrastructure/resolver"
	"ethertap/infrastructure/settings"
	"ethertap/infrastructure/tap"
	"ethertap/presentation/elevation"
	"ethertap/presentation/runners/version"
	"ethertap/presentation/signals"
	"ethertap/presentation/signals/shutdown"
	"ethertap/presentation/ui/dashboard"

	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command.
type options struct {
	configFile string
	logLevel   string
}

// load reads the configuration and applies the --log-level override.
func (o *options) load() (settings.Settings, error) {
	s, err := settings.Load(o.configFile)
	if err != nil {
		return settings.Settings{}, err
	}
	if o.logLevel != "" {
		s.Log.Level = o.logLevel
	}
	return s, nil
}

// environment is what the commands take from the host; tests replace it.
type environment struct {
	elevation      elevation.ProcessElevation
	newProvisioner func(tap.Environment) (application.Provisioner, error)
	lookup         resolver.Lookup
	signalProvider palSignal.Provider
	notifier       signals.Notifier
	runDashboard   func(ctx context.Context, options dashboard.Options) error
	devices        func() ([]device, error)
}

func defaultEnvironment() environment {
	return environment{
		elevation:      elevation.NewProcessElevation(),
		newProvisioner: pal_factory.NewProvisioner,
		lookup:         resolver.DefaultLookup,
		signalProvider: palSignal.NewDefaultProvider(),
		notifier:       shutdown.NewNotifier(),
		runDashboard:   dashboard.Run,
		devices: func() ([]device, error) {
			return systemDevices(net.Interfaces)
		},
	}
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultEnvironment())
}

func newRootCommand(env environment) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   app.Name,
		Short: "Virtual Ethernet taps bridged over UDP",
		Long: `ethertap creates a virtual Ethernet interface for a network and carries
its frames to peers over UDP.

Configuration is read from the file given with --config and from
ETHERTAP_* environment variables, e.g. ETHERTAP_NETWORK_NETWORK_ID.`,
		Version:       version.Current(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path (YAML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newRunCommand(opts, env),
		newConfigCommand(opts),
		newVersionCommand(),
		newDevicesCommand(env),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
