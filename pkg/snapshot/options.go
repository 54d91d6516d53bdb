package snapshot

import (
	"github.com/spf13/viper"
)

const (
	defaultNamespace  = "default"
	defaultLogTail    = int64(200)
	defaultEventTail  = 50
	defaultOutputRoot = "./kubesnap-output"
)

// Options are the resolved run parameters. They are immutable for the
// duration of one run.
type Options struct {
	// Namespace scopes every namespaced query of the run.
	Namespace string
	// LogTail bounds the lines fetched per pod log capture.
	LogTail int64
	// EventTail bounds the rows of the events capture.
	EventTail int
	// OutputRoot is the parent directory for the run's timestamped bundle.
	OutputRoot string
}

func DefaultOptions() Options {
	return Options{
		Namespace:  defaultNamespace,
		LogTail:    defaultLogTail,
		EventTail:  defaultEventTail,
		OutputRoot: defaultOutputRoot,
	}
}

// OptionsFromViper resolves run options from flags and KUBESNAP_* environment
// variables, applying defaults for anything unset or out of range. Resolution
// never fails; validating the resolved values against the cluster is
// preflight's job.
func OptionsFromViper(v *viper.Viper) Options {
	opts := DefaultOptions()

	if ns := v.GetString("namespace"); ns != "" {
		opts.Namespace = ns
	}
	if n := v.GetInt64("log-tail"); n > 0 {
		opts.LogTail = n
	}
	if n := v.GetInt("event-tail"); n > 0 {
		opts.EventTail = n
	}
	if root := v.GetString("output"); root != "" {
		opts.OutputRoot = root
	}

	return opts
}
