//go:build linux

package tap

import (
	"bufio"
	"encoding/hex"
	"io"
	"strings"

	"ethertap/domain/network/mac"
)

// parseDevMcast reads the link-layer multicast table in the /proc/net/dev_mcast
// format and returns the addresses subscribed on devName:
//
//	index name users global address
//	4     et0  1     0      333300000001
func parseDevMcast(r io.Reader, devName string) ([]mac.MAC, error) {
	var out []mac.MAC
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[1] != devName {
			continue
		}
		raw, err := hex.DecodeString(fields[4])
		if err != nil {
			continue
		}
		m, err := mac.FromBytes(raw)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, scanner.Err()
}
