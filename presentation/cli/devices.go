package cli

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"ethertap/infrastructure/tap"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// device is one OS network interface as shown by the devices command.
type device struct {
	Name      string
	Index     int
	MAC       string
	MTU       int
	Up        bool
	Addresses []string
}

func systemDevices(interfaces func() ([]net.Interface, error)) ([]device, error) {
	ifaces, err := interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	devices := make([]device, 0, len(ifaces))
	for _, iface := range ifaces {
		d := device{
			Name:  iface.Name,
			Index: iface.Index,
			MAC:   iface.HardwareAddr.String(),
			MTU:   iface.MTU,
			Up:    iface.Flags&net.FlagUp != 0,
		}
		if addrs, err := iface.Addrs(); err == nil {
			for _, a := range addrs {
				d.Addresses = append(d.Addresses, a.String())
			}
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func newDevicesCommand(env environment) *cobra.Command {
	var prefix string
	var all bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List tap interfaces present on this host",
		Long: `List the interfaces whose name starts with the tap name prefix, with
their state, MAC, MTU and addresses. Use --all to list every interface.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := env.devices()
			if err != nil {
				return err
			}
			if !all {
				devices = slices.DeleteFunc(devices, func(d device) bool {
					return !strings.HasPrefix(d.Name, prefix)
				})
			}
			if len(devices) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no interfaces named %s*\n", prefix)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderDevices(devices))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", tap.DefaultEnvironment().NamePrefix, "interface name prefix")
	cmd.Flags().BoolVar(&all, "all", false, "list every interface")
	return cmd
}

func renderDevices(devices []device) string {
	slices.SortFunc(devices, func(a, b device) int { return strings.Compare(a.Name, b.Name) })

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		state := "down"
		if d.Up {
			state = "up"
		}
		mac := d.MAC
		if mac == "" {
			mac = "-"
		}
		addresses := strings.Join(d.Addresses, ", ")
		if addresses == "" {
			addresses = "-"
		}
		rows = append(rows, []string{d.Name, strconv.Itoa(d.Index), state, mac, strconv.Itoa(d.MTU), addresses})
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("DEVICE", "INDEX", "STATE", "MAC", "MTU", "ADDRESSES").
		Rows(rows...).
		String()
}
