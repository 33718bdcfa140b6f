//go:build windows

package launcher

import (
	"errors"
	"os"
	"os/exec"
)

// execPlan runs the child attached to the console and exits with its status,
// since Windows has no exec(2).
func execPlan(plan *Plan) error {
	cmd := exec.Command(plan.Path, plan.Args[1:]...)
	cmd.Env = plan.Env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}
	os.Exit(0)
	return nil
}
