//go:build !windows

package launcher

import "syscall"

func execPlan(plan *Plan) error {
	return syscall.Exec(plan.Path, plan.Args, plan.Env)
}
