package snapshot

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/kubesnap/kubesnap/pkg/collect"
	"github.com/kubesnap/kubesnap/pkg/version"
)

// ManifestFilename is the summary document written at the very end of every
// run.
const ManifestFilename = "manifest.yaml"

// captureCategories is the fixed description of what a run attempts; it does
// not vary with what was actually found in the namespace.
var captureCategories = []string{
	"pod descriptions, logs and previous logs (previous gated on restarts)",
	"service descriptions",
	"ingress descriptions and manifests",
	"cluster-wide: nodes, events, persistent volume claims, statefulsets, deployments",
	"resource usage for nodes and pods (when the metrics API responds)",
	"load balancer target groups and target health (when credentials and annotations are present)",
}

// Manifest summarizes one run: the configuration it resolved, the categories
// it attempted, and every artifact file present in the bundle when the
// manifest was written. The manifest never lists itself; the listing is
// taken before it is written.
type Manifest struct {
	Timestamp           string          `yaml:"timestamp"`
	Namespace           string          `yaml:"namespace"`
	KubesnapVersion     string          `yaml:"kubesnapVersion"`
	Options             ManifestOptions `yaml:"options"`
	Categories          []string        `yaml:"captureCategories"`
	SkippedCapabilities []string        `yaml:"skippedCapabilities,omitempty"`
	Files               []string        `yaml:"files"`
}

type ManifestOptions struct {
	LogTail    int64  `yaml:"logTail"`
	EventTail  int    `yaml:"eventTail"`
	OutputRoot string `yaml:"outputRoot"`
}

func writeManifest(run *RunContext, output collect.CollectorResult, skipped []string) (string, error) {
	files, err := artifactListing(run.BundlePath, output)
	if err != nil {
		return "", err
	}

	manifest := Manifest{
		Timestamp:       run.Timestamp.Format(timestampLayout),
		Namespace:       run.Namespace,
		KubesnapVersion: version.Version(),
		Options: ManifestOptions{
			LogTail:    run.LogTail,
			EventTail:  run.EventTail,
			OutputRoot: run.OutputRoot,
		},
		Categories:          captureCategories,
		SkippedCapabilities: skipped,
		Files:               files,
	}

	b, err := yaml.Marshal(manifest)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal manifest")
	}

	if err := output.SaveResult(run.BundlePath, ManifestFilename, bytes.NewBuffer(b)); err != nil {
		return "", errors.Wrap(err, "failed to write manifest")
	}

	return filepath.Join(run.BundlePath, ManifestFilename), nil
}

// artifactListing returns the sorted relative paths of every artifact file
// in the bundle directory. For memory-only bundles the result map keys stand
// in for the directory.
func artifactListing(bundlePath string, output collect.CollectorResult) ([]string, error) {
	if bundlePath == "" {
		return output.Paths(), nil
	}

	files := []string{}
	err := filepath.WalkDir(bundlePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(bundlePath, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bundle directory")
	}

	sort.Strings(files)
	return files, nil
}
