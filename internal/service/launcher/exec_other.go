//go:build !unix

package launcher

import (
	"context"
	"os"
	"os/exec"
)

// execve runs argv as a child and waits, there is no exec(2) here.
func execve(ctx context.Context, argv, env []string) error {
	//nolint:gosec // argv comes from the install directory and the config file.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
