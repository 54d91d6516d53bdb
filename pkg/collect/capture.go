package collect

import (
	"bytes"
	"context"

	"k8s.io/klog/v2"
)

// A Capture is one read-only diagnostic query bound to a destination file
// inside the bundle. Captures are stateless values; many are generated per
// run and none outlive it.
type Capture struct {
	// Label identifies the capture in console and log output.
	Label string
	// Path is the destination file, relative to the bundle root.
	Path string
	// Query runs the read-only query and returns its output.
	Query func(ctx context.Context) ([]byte, error)
}

// CaptureOutcome records how a single capture went. A file exists for every
// attempted capture, holding either the query output or its error text, so a
// missing artifact never has to be inferred from a missing outcome.
type CaptureOutcome struct {
	Label string
	Path  string
	OK    bool
	Err   error
}

// Run executes the capture exactly once, never retrying, and writes whatever
// the query produced to the capture's file. A query failure is written as the
// file content and recorded in the outcome; it is never propagated, so one
// unreachable resource cannot blank out the rest of the bundle.
func (c Capture) Run(ctx context.Context, bundlePath string, output CollectorResult) CaptureOutcome {
	klog.V(2).Infof("Capturing %s into %s", c.Label, c.Path)

	data, err := c.Query(ctx)
	if err != nil {
		klog.V(1).Infof("Capture %s failed: %v", c.Label, err)
		if saveErr := output.SaveResult(bundlePath, c.Path, bytes.NewBufferString(err.Error()+"\n")); saveErr != nil {
			klog.Errorf("Failed to save error output for %s: %v", c.Label, saveErr)
		}
		return CaptureOutcome{Label: c.Label, Path: c.Path, Err: err}
	}

	if err := output.SaveResult(bundlePath, c.Path, bytes.NewBuffer(data)); err != nil {
		klog.Errorf("Failed to save output for %s: %v", c.Label, err)
		return CaptureOutcome{Label: c.Label, Path: c.Path, Err: err}
	}

	return CaptureOutcome{Label: c.Label, Path: c.Path, OK: true}
}

// Prefetched adapts already-fetched data (or the error fetching it) into a
// capture query, for captures whose source object was needed for fan-out
// decisions before the artifact is written.
func Prefetched(data []byte, err error) func(ctx context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) {
		return data, err
	}
}
