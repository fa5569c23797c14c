//go:build linux

package tap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const maxDeviceIndex = 1000

// nextFreeName picks the first prefixN with no entry under procConfDir, which
// lists every interface the kernel currently knows.
func nextFreeName(prefix, procConfDir string) (string, error) {
	for i := 0; i < maxDeviceIndex; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		_, err := os.Stat(filepath.Join(procConfDir, name))
		if errors.Is(err, os.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to probe %s: %v", name, err)
		}
	}
	return "", fmt.Errorf("no free device name with prefix %q", prefix)
}
