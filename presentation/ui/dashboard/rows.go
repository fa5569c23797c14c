package dashboard

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"ethertap/infrastructure/telemetry/trafficstats"
	"ethertap/presentation/runners/bridge"

	"github.com/charmbracelet/bubbles/table"
)

func tapColumns() []table.Column {
	return []table.Column{
		{Title: "Device", Width: 12},
		{Title: "Network", Width: 16},
		{Title: "MAC", Width: 17},
		{Title: "MTU", Width: 5},
		{Title: "State", Width: 8},
		{Title: "Addresses", Width: 22},
		{Title: "RX", Width: 20},
		{Title: "TX", Width: 20},
	}
}

func portColumns() []table.Column {
	return []table.Column{
		{Title: "Port", Width: 16},
		{Title: "Type", Width: 8},
		{Title: "Local", Width: 28},
	}
}

// TapRows renders one row per tap, ordered by device name.
func TapRows(status bridge.Status) []table.Row {
	rows := make([]table.Row, 0, len(status.Taps))
	for _, t := range status.Taps {
		var ips []string
		for _, p := range t.IPs() {
			ips = append(ips, p.String())
		}
		addresses := strings.Join(ips, ",")
		if addresses == "" {
			addresses = "-"
		}
		traffic := t.Traffic()
		rows = append(rows, table.Row{
			t.DeviceName(),
			t.NetworkID().String(),
			t.MAC().String(),
			strconv.Itoa(t.MTU()),
			t.State().String(),
			addresses,
			formatTraffic(traffic.RXBytesTotal, traffic.RXRate),
			formatTraffic(traffic.TXBytesTotal, traffic.TXRate),
		})
	}
	slices.SortFunc(rows, func(a, b table.Row) int { return strings.Compare(a[0], b[0]) })
	return rows
}

// PortRows renders one row per Demarc port in port order.
func PortRows(status bridge.Status) []table.Row {
	rows := make([]table.Row, 0, len(status.Ports))
	for _, p := range status.Ports {
		local := "-"
		if p.Local.IsValid() {
			local = p.Local.String()
		}
		rows = append(rows, table.Row{p.Port.String(), p.Type.String(), local})
	}
	return rows
}

func formatTraffic(total, rate uint64) string {
	return fmt.Sprintf("%s %s", trafficstats.FormatTotal(total), trafficstats.FormatRate(rate))
}

