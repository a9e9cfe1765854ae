package pid_test

import (
	"os"
	"strconv"
	"testing"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	t.Setenv("RUNTIME_DIRECTORY", t.TempDir())
	f := pid.New("fanctl")

	require.NoError(t, f.Write())

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	require.NoError(t, f.Remove())
}

func TestWriteAlreadyRunning(t *testing.T) {
	t.Setenv("RUNTIME_DIRECTORY", t.TempDir())
	f := pid.New("fanctl")

	require.NoError(t, os.WriteFile(f.Path(), []byte(strconv.Itoa(os.Getpid())), 0o600))

	err := f.Write()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteReplacesStale(t *testing.T) {
	t.Setenv("RUNTIME_DIRECTORY", t.TempDir())
	f := pid.New("fanlogger")

	require.NoError(t, os.WriteFile(f.Path(), []byte("not a pid"), 0o600))
	require.NoError(t, f.Write())

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}
