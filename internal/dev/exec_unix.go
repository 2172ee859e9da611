//go:build !windows

package dev

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

func execBinary(binary string, args []string) error {
	argv := append([]string{binary}, args...)
	if err := syscall.Exec(binary, argv, os.Environ()); err != nil {
		return errors.Wrapf(err, "exec %s", binary)
	}
	return nil
}
