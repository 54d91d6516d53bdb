package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func Test_GetVersionFile(t *testing.T) {
	b, err := GetVersionFile()
	require.NoError(t, err)

	parsed := SnapshotVersion{}
	require.NoError(t, yaml.Unmarshal(b, &parsed))

	assert.Equal(t, "kubesnap.io/v1", parsed.ApiVersion)
	assert.Equal(t, "SnapshotVersion", parsed.Kind)
	assert.Equal(t, Version(), parsed.Spec.VersionNumber)
}
