package version

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"ethertap/domain/app"
)

// Tag is set via ldflags by the release build.
var Tag = "version not set"

// Current returns Tag without surrounding whitespace.
func Current() string {
	return strings.TrimSpace(Tag)
}

type Runner struct {
	out io.Writer
}

// NewRunner writes to out, or to stdout when out is nil.
func NewRunner(out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{out: out}
}

func (r *Runner) Run(_ context.Context) {
	_, _ = fmt.Fprintf(r.out, "%s %s (%s/%s)\n",
		app.Name,
		Current(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}
