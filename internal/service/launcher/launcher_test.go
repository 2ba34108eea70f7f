package launcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	t.Parallel()

	install := filepath.Join("/data", "install")

	require.Equal(t, []string{"/data/install/usr/bin/spotify"}, Command(install, nil, ""))
	require.Equal(t,
		[]string{"/data/install/usr/bin/spotify", "--force-device-scale-factor=1.5", "--uri=spotify:track:4uLU6hMCjMI75M1A2tKUQC"},
		Command(install, []string{"--force-device-scale-factor=1.5"}, "spotify:track:4uLU6hMCjMI75M1A2tKUQC"))
}

func TestEnviron(t *testing.T) {
	t.Setenv("SPOTIFY_LAUNCHER_TEST", "1")

	env := Environ(context.Background(), []string{"GDK_SCALE=2", "BROKEN", "=nokey"})

	require.Contains(t, env, "SPOTIFY_LAUNCHER_TEST=1")
	require.Equal(t, "GDK_SCALE=2", env[len(env)-1])
	require.NotContains(t, env, "BROKEN")
	require.NotContains(t, env, "=nokey")
}

func TestExec_Failures(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Exec(context.Background(), nil, nil), errEmptyCommand)

	err := Exec(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, nil)
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to exec")
}
