/*
Logging setup for kubesnap.

Logging levels

0: progress information for the run as a whole, shown by default.

1: high level logs within each capture category. A log such as "metrics API
unavailable, skipping resource usage" belongs here.

2: everything else. If you do not know which level to use, use this level.

Do not log errors in functions that return an error. Instead, return the
error and let the caller log it.
*/
package logger

import (
	"flag"
	"sync"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

var lock sync.Mutex

// InitKlogFlags initializes klog flags and exposes the verbosity flag on the
// given flag set.
func InitKlogFlags(flags *pflag.FlagSet) {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)

	klogFlags.VisitAll(func(f *flag.Flag) {
		// Just the flags we want to expose in our CLI
		if f.Name == "v" {
			flags.AddGoFlag(f)
		}
	})
}

// SetupLogger configures klog based on viper configuration.
func SetupLogger(v *viper.Viper) {
	verbose := v.GetBool("debug") || v.IsSet("v")
	SetQuiet(!verbose)
}

// SetQuiet enables or disables the klog logger.
func SetQuiet(quiet bool) {
	lock.Lock()
	defer lock.Unlock()

	if quiet {
		klog.SetLogger(logr.Discard())
	} else {
		klog.ClearLogger()
	}
}
