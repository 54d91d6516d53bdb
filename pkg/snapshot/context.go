package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Sortable to the second. Colons are avoided so bundle names stay portable
// across filesystems.
const timestampLayout = "2006-01-02T15-04-05"

// RunContext is the per-run state: the resolved options, the timestamp the
// run was keyed with, and the bundle directory owned by this run. A bundle
// directory is never shared between runs.
type RunContext struct {
	Options

	Timestamp  time.Time
	BundlePath string
}

func NewRunContext(opts Options, now time.Time) *RunContext {
	stamp := now.Format(timestampLayout)
	return &RunContext{
		Options:    opts,
		Timestamp:  now,
		BundlePath: filepath.Join(opts.OutputRoot, fmt.Sprintf("%s-%s", opts.Namespace, stamp)),
	}
}

// ensureBundleDir creates the run's bundle directory. Runs started within
// the same second get distinct directories by suffixing a counter, keeping
// the no-interference guarantee between back-to-back runs.
func (run *RunContext) ensureBundleDir() error {
	if err := os.MkdirAll(run.OutputRoot, 0755); err != nil {
		return errors.Wrap(err, "failed to create output root directory")
	}

	base := run.BundlePath
	for i := 2; ; i++ {
		err := os.Mkdir(run.BundlePath, 0755)
		if err == nil {
			return nil
		}
		if !os.IsExist(err) {
			return errors.Wrap(err, "failed to create bundle directory")
		}
		run.BundlePath = fmt.Sprintf("%s-%d", base, i)
	}
}
