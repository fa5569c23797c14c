package trafficstats

import "fmt"

var binaryUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

func FormatRate(bytesPerSecond uint64) string {
	return formatBinary(float64(bytesPerSecond)) + "/s"
}

func FormatTotal(bytes uint64) string {
	return formatBinary(float64(bytes))
}

func formatBinary(value float64) string {
	unitIdx := 0
	for value >= 1024 && unitIdx < len(binaryUnits)-1 {
		value /= 1024
		unitIdx++
	}
	if unitIdx == 0 {
		return fmt.Sprintf("%.0f %s", value, binaryUnits[unitIdx])
	}
	return fmt.Sprintf("%.1f %s", value, binaryUnits[unitIdx])
}
