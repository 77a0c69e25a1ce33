package passphrase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceReadsEnvironmentOnce(t *testing.T) {
	t.Setenv("REFPOOL_TEST_PASS", "hunter2")
	src := NewSource("REFPOOL_TEST_PASS")

	got, err := src.Get()
	require.NoError(t, err)
	require.Equal(t, "hunter2", got)

	t.Setenv("REFPOOL_TEST_PASS", "changed")
	got, err = src.Get()
	require.NoError(t, err)
	require.Equal(t, "hunter2", got)
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	t.Setenv("REFPOOL_TEST_PASS", "   ")
	_, err := NewSource("REFPOOL_TEST_PASS").Get()
	require.ErrorContains(t, err, "REFPOOL_TEST_PASS is set but empty")
}
