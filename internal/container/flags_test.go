package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRunFlags(t *testing.T) {
	t.Run("supported subset", func(t *testing.T) {
		flags, err := ParseRunFlags([]string{
			"-v", "/tmp/stage:/opt/data",
			"--volume=/scratch:/scratch:ro",
			"-e", "OMP_NUM_THREADS=4",
			"-w", "/opt/data",
			"--memory", "2g",
			"--network", "none",
			"-u", "1000:1000",
			"--rm",
		})
		require.NoError(t, err)

		assert.Equal(t, []Mount{
			{Source: "/tmp/stage", Target: "/opt/data"},
			{Source: "/scratch", Target: "/scratch", ReadOnly: true},
		}, flags.Mounts)
		assert.Equal(t, []string{"OMP_NUM_THREADS=4"}, flags.Env)
		assert.Equal(t, "/opt/data", flags.WorkDir)
		assert.Equal(t, int64(2*1024*1024*1024), flags.Memory)
		assert.Equal(t, "none", flags.Network)
		assert.Equal(t, "1000:1000", flags.User)
	})

	t.Run("empty args", func(t *testing.T) {
		flags, err := ParseRunFlags(nil)
		require.NoError(t, err)
		assert.Empty(t, flags.Mounts)
		assert.Zero(t, flags.Memory)
	})

	t.Run("env without value copies host variable", func(t *testing.T) {
		t.Setenv("NWCHEMCTL_TEST_VAR", "42")
		flags, err := ParseRunFlags([]string{"-e", "NWCHEMCTL_TEST_VAR", "-e", "NWCHEMCTL_TEST_UNSET_VAR"})
		require.NoError(t, err)
		assert.Equal(t, []string{"NWCHEMCTL_TEST_VAR=42"}, flags.Env)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := ParseRunFlags([]string{"--privileged"})
		require.ErrorIs(t, err, ErrUnsupportedFlag)
	})

	t.Run("positional argument", func(t *testing.T) {
		_, err := ParseRunFlags([]string{"-w", "/opt/data", "input.nw"})
		require.ErrorIs(t, err, ErrUnsupportedFlag)
	})

	t.Run("invalid volume", func(t *testing.T) {
		_, err := ParseRunFlags([]string{"-v", "/tmp/stage"})
		require.ErrorIs(t, err, ErrInvalidMount)
	})

	t.Run("invalid memory", func(t *testing.T) {
		_, err := ParseRunFlags([]string{"--memory", "lots"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid memory limit")
	})
}
