package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var (
	// set at link time with -ldflags
	version   string
	gitSHA    string
	buildTime string

	build Build
)

// Build holds details about this build of the binary.
type Build struct {
	Version   string    `json:"version,omitempty" yaml:"version,omitempty"`
	GitSHA    string    `json:"git,omitempty" yaml:"git,omitempty"`
	BuildTime time.Time `json:"buildTime,omitempty" yaml:"buildTime,omitempty"`
	GoInfo    GoInfo    `json:"go,omitempty" yaml:"go,omitempty"`
}

type GoInfo struct {
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Compiler string `json:"compiler,omitempty" yaml:"compiler,omitempty"`
	OS       string `json:"os,omitempty" yaml:"os,omitempty"`
	Arch     string `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// SnapshotVersion is the document written into every bundle so the tooling
// that produced a bundle can be identified after the fact.
type SnapshotVersion struct {
	ApiVersion string              `yaml:"apiVersion"`
	Kind       string              `yaml:"kind"`
	Spec       SnapshotVersionSpec `yaml:"spec"`
}

type SnapshotVersionSpec struct {
	VersionNumber string `yaml:"versionNumber"`
}

func initBuild() {
	if version == "" {
		// Fall back to module build info when ldflags were not provided,
		// e.g. when installed with `go install`.
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
			version = bi.Main.Version
		}
	}
	if version == "" {
		version = "(devel)"
	}

	build.Version = version
	build.GitSHA = gitSHA
	if t, err := time.Parse(time.RFC3339, buildTime); err == nil {
		build.BuildTime = t
	}
	build.GoInfo = GoInfo{
		Version:  runtime.Version(),
		Compiler: runtime.Compiler,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// GetBuild returns the details of the running binary.
func GetBuild() Build {
	if build.Version == "" {
		initBuild()
	}
	return build
}

// Version returns the version of the running binary.
func Version() string {
	return GetBuild().Version
}

// GitSHA returns the git sha of the source this binary was built from.
func GitSHA() string {
	return GetBuild().GitSHA
}

// GetUserAgent returns a user-agent string for API requests.
func GetUserAgent() string {
	return fmt.Sprintf("kubesnap/%s", Version())
}

// GetVersionFile renders the version document that is saved into each bundle.
func GetVersionFile() ([]byte, error) {
	v := SnapshotVersion{
		ApiVersion: "kubesnap.io/v1",
		Kind:       "SnapshotVersion",
		Spec: SnapshotVersionSpec{
			VersionNumber: Version(),
		},
	}

	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal version data")
	}

	return b, nil
}
