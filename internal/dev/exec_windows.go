//go:build windows

package dev

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// Windows cannot replace the process image, so the next generation is
// started as a detached child and this process exits.
func execBinary(binary string, args []string) error {
	cmd := exec.Command(binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", binary)
	}
	os.Exit(0)
	return nil
}
