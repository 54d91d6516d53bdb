package collect

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// CollectorResult tracks every artifact produced during a run, keyed by the
// artifact's path relative to the bundle root. When the bundle is written to
// disk the values are nil and the file on disk is authoritative; when the
// bundle path is empty the bytes are kept in memory (used by tests).
type CollectorResult map[string][]byte

func NewResult() CollectorResult {
	return map[string][]byte{}
}

// SaveResult saves data to the relativePath file on disk. If bundlePath is
// empty, no file is created on disk. The relativePath is always recorded in
// the result map.
func (r CollectorResult) SaveResult(bundlePath string, relativePath string, reader io.Reader) error {
	if reader == nil {
		return nil
	}

	if bundlePath == "" {
		data, err := io.ReadAll(reader)
		if err != nil {
			return errors.Wrap(err, "failed to read data")
		}
		// Memory only bundle
		r[relativePath] = data
		return nil
	}

	r[relativePath] = nil // save the file name referencing the file on disk

	fileDir, fileName := filepath.Split(relativePath)
	outPath := filepath.Join(bundlePath, fileDir)

	if err := os.MkdirAll(outPath, 0777); err != nil {
		return errors.Wrap(err, "failed to create output file directory")
	}

	f, err := os.Create(filepath.Join(outPath, fileName))
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer f.Close()

	_, err = io.Copy(f, reader)
	if err != nil {
		return errors.Wrap(err, "failed to copy data")
	}

	return nil
}

// GetReader returns a reader for an artifact previously saved in this result.
func (r CollectorResult) GetReader(bundlePath string, relativePath string) (io.ReadCloser, error) {
	if r[relativePath] != nil {
		// Memory only bundle
		return io.NopCloser(bytes.NewReader(r[relativePath])), nil
	}

	if bundlePath == "" {
		return nil, errors.New("cannot create reader, bundle path is empty")
	}

	f, err := os.Open(filepath.Join(bundlePath, relativePath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}

	return f, nil
}

// Paths returns the sorted relative paths of every artifact in the result.
func (r CollectorResult) Paths() []string {
	paths := make([]string, 0, len(r))
	for k := range r {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}
