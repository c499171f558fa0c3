// Package command holds the kong struct-tag command definitions for
// cmd/zeta-subset, following the Globals/VersionFlag/per-command Run
// convention of the teacher's own pkg/command.
package command

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

// version is substituted at link time the way the teacher's pkg/version
// is; kept as a plain var here since there is no release pipeline to
// wire ldflags into yet.
var version = "devel"

// Globals are the flags shared by every command.
type Globals struct {
	Verbose bool        `short:"V" name:"verbose" help:"Make the operation more talkative; print a timing report on exit"`
	Version VersionFlag `short:"v" name:"version" help:"Show version number and quit"`
}

// DbgPrint prints a yellow, asterisk-prefixed diagnostic line to stderr
// when Verbose is set, matching the teacher's own DbgPrint formatting.
func (g *Globals) DbgPrint(format string, args ...any) {
	if !g.Verbose {
		return
	}
	message := strings.TrimSuffix(fmt.Sprintf(format, args...), "\n")
	var buf bytes.Buffer
	for _, line := range strings.Split(message, "\n") {
		buf.WriteString("\x1b[33m* ")
		buf.WriteString(line)
		buf.WriteString("\x1b[0m\n")
	}
	_, _ = os.Stderr.Write(buf.Bytes())
}

// VersionFlag prints the version and exits before any command runs.
type VersionFlag bool

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println("zeta-subset " + version)
	app.Exit(0)
	return nil
}

// ErrExitCode carries the process exit code a failed Run should produce,
// mirroring pkg/zeta's *ErrExitCode so main can map it with one type
// switch instead of guessing an exit status from an arbitrary error.
type ErrExitCode struct {
	ExitCode int
	Message  string
}

func (e *ErrExitCode) Error() string { return e.Message }

// IsExitCode reports whether err is an *ErrExitCode with exactly code.
func IsExitCode(err error, code int) bool {
	e, ok := err.(*ErrExitCode)
	return ok && e.ExitCode == code
}
