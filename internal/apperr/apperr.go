// Package apperr classifies command failures into kinds and maps each kind to
// a stable process exit status.
//
// Exit codes:
//
//	0   success
//	1   internal or unclassified error
//	2   usage error or unknown subcommand
//	3   unknown provider
//	4   no token stored for the provider
//	5   secure credential store unavailable
//	6   token store write failure
//	7   settings file write failure
//	8   downstream executable not installed
//	9   downstream executable failed to start
//	10  token store read failure
//	11  settings file unreadable or malformed
//	12  invalid tool configuration
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind int

const (
	Internal Kind = iota
	Usage
	UnknownSubcommand
	NotFoundProvider
	MissingToken
	UnsupportedPlatform
	StoreWriteFailure
	SettingsWriteFailure
	DependencyMissing
	LaunchFailure
	StoreReadFailure
	SettingsReadFailure
	ConfigInvalid
)

var kindNames = map[Kind]string{
	Internal:             "internal error",
	Usage:                "usage error",
	UnknownSubcommand:    "unknown subcommand",
	NotFoundProvider:     "unknown provider",
	MissingToken:         "missing token",
	UnsupportedPlatform:  "secure store unavailable",
	StoreWriteFailure:    "token store write failed",
	SettingsWriteFailure: "settings write failed",
	DependencyMissing:    "dependency missing",
	LaunchFailure:        "launch failed",
	StoreReadFailure:     "token store read failed",
	SettingsReadFailure:  "settings read failed",
	ConfigInvalid:        "invalid configuration",
}

var exitCodes = map[Kind]int{
	Internal:             1,
	Usage:                2,
	UnknownSubcommand:    2,
	NotFoundProvider:     3,
	MissingToken:         4,
	UnsupportedPlatform:  5,
	StoreWriteFailure:    6,
	SettingsWriteFailure: 7,
	DependencyMissing:    8,
	LaunchFailure:        9,
	StoreReadFailure:     10,
	SettingsReadFailure:  11,
	ConfigInvalid:        12,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ExitCode returns the process exit status for the kind.
func (k Kind) ExitCode() int {
	if code, ok := exitCodes[k]; ok {
		return code
	}
	return 1
}

// Error is a classified failure. Subject names the responsible input
// (provider name, path, executable) and Hint carries the next step for the user.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
	Hint    string
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Subject != "" {
		msg += ": " + e.Subject
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// WithHint sets the user-facing next step and returns e.
func (e *Error) WithHint(format string, args ...any) *Error {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// Wrap classifies err unless it already carries a kind.
func Wrap(kind Kind, subject string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return New(kind, subject, err)
}

// KindOf returns the kind of err, or Internal when err is unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// ExitCode maps err to a process exit status; nil means success.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// HintOf returns the hint attached to err, if any.
func HintOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Hint
	}
	return ""
}
