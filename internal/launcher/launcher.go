// Package launcher starts the claude CLI with the active selection in its
// environment. Prepare does every check that can fail; Exec hands the
// process over and does not return on success.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"switchclaude/config/models"
	"switchclaude/internal/log"
)

// DefaultCommand is the executable launched when none is configured
const DefaultCommand = "claude"

// DependencyError is returned by Prepare when the executable is not on PATH.
type DependencyError struct {
	Command string
	Err     error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s not found in PATH: %v", e.Command, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// LaunchError is returned by Exec when the process could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Plan is a fully resolved launch.
type Plan struct {
	// Path is the resolved executable
	Path string
	// Args is the argument vector, Args[0] being the command name
	Args []string
	// Env is the complete environment of the new process
	Env []string
}

// Launcher prepares and executes launch plans.
type Launcher struct {
	command  string
	lookPath func(string) (string, error)
	environ  func() []string
	exec     func(*Plan) error
}

// New creates a Launcher for command, or DefaultCommand when empty.
func New(command string) *Launcher {
	if command == "" {
		command = DefaultCommand
	}
	return &Launcher{
		command:  command,
		lookPath: exec.LookPath,
		environ:  os.Environ,
		exec:     execPlan,
	}
}

// Command returns the configured executable name
func (l *Launcher) Command() string {
	return l.command
}

// Prepare resolves the executable and builds the environment: the current
// environment without any managed key, plus the selection's values. A
// non-empty message becomes the single prompt argument.
func (l *Launcher) Prepare(sel models.Selection, message string) (*Plan, error) {
	path, err := l.lookPath(l.command)
	if err != nil {
		return nil, &DependencyError{Command: l.command, Err: err}
	}

	args := []string{l.command}
	if message = strings.TrimSpace(message); message != "" {
		args = append(args, message)
	}

	plan := &Plan{
		Path: path,
		Args: args,
		Env:  mergeEnv(l.environ(), sel.Env()),
	}
	log.Debug("launch prepared", "path", path, "args", len(args))
	return plan, nil
}

// Exec replaces the current process with the plan. It only returns on
// failure.
func (l *Launcher) Exec(plan *Plan) error {
	if plan == nil {
		return &LaunchError{Err: errors.New("no launch plan")}
	}
	if err := l.exec(plan); err != nil {
		return &LaunchError{Path: plan.Path, Err: err}
	}
	return nil
}

func envKey(entry string) string {
	if i := strings.IndexByte(entry, '='); i >= 0 {
		return entry[:i]
	}
	return entry
}

// mergeEnv drops managed keys from base and appends values in managed order
func mergeEnv(base []string, values map[string]string) []string {
	env := make([]string, 0, len(base)+len(values))
	for _, entry := range base {
		if models.IsManagedEnvKey(envKey(entry)) {
			continue
		}
		env = append(env, entry)
	}
	for _, key := range models.ManagedEnvKeys {
		if value, ok := values[key]; ok {
			env = append(env, key+"="+value)
		}
	}
	return env
}
