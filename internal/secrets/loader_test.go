package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))
	t.Setenv("JOBHACKR_TEST_TOKEN", "from-env")

	got, err := Load(Source{Name: "token", File: path, Env: "JOBHACKR_TEST_TOKEN", Value: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadEnvThenInline(t *testing.T) {
	t.Setenv("JOBHACKR_TEST_TOKEN", " from-env ")

	got, err := Load(Source{Env: "JOBHACKR_TEST_TOKEN", Value: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	t.Setenv("JOBHACKR_TEST_TOKEN", "")
	got, err = Load(Source{Env: "JOBHACKR_TEST_TOKEN", Value: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)
}

func TestLoadErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))

	_, err := Load(Source{Name: "hh token", File: empty})
	assert.ErrorContains(t, err, "is empty")

	_, err = Load(Source{Name: "hh token", File: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "reading hh token")

	_, err = Load(Source{Name: "gemini key", Env: "JOBHACKR_UNSET_FOR_TEST"})
	assert.ErrorContains(t, err, "$JOBHACKR_UNSET_FOR_TEST")

	_, err = Load(Source{})
	assert.EqualError(t, err, "secret is not configured")
}
