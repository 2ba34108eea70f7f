//go:build unix

package launcher

import (
	"context"

	"golang.org/x/sys/unix"
)

func execve(_ context.Context, argv, env []string) error {
	return unix.Exec(argv[0], argv, env)
}
