package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"ethertap/infrastructure/settings"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "ethertap.yaml"

func newConfigCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check configuration files",
	}
	cmd.AddCommand(newConfigGenerateCommand(opts), newConfigValidateCommand(opts))
	return cmd
}

func newConfigGenerateCommand(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write an example configuration",
		Long: `Write an example configuration with every default spelled out.

The file goes to --config, or ethertap.yaml when --config is not set.
Use --config - to print it instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configFile
			if path == "" {
				path = defaultConfigFile
			}
			if path == "-" {
				return settings.Generate(cmd.OutOrStdout(), settings.Example())
			}
			if err := settings.GenerateFile(path, force); err != nil {
				if errors.Is(err, fs.ErrExist) {
					return fmt.Errorf("%s already exists, use --force to overwrite it", path)
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report the first problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "VALID: network %s, mac %s, mtu %d, %d peer(s), %d udp port(s)\n",
				cfg.Network.ID,
				cfg.Network.LocalMAC(),
				cfg.Tap.MTU,
				len(cfg.Network.Peers)+len(cfg.Resolver.Hostnames),
				len(cfg.Demarc.UDPPorts),
			)
			return nil
		},
	}
}
