package command

import (
	"fmt"
	"os"

	"github.com/zeta-vcs/zeta-subset/modules/pathfilter"
)

// ValidateFilter compiles a filter file and reports its shape without
// touching any repository, so a whitelist can be sanity-checked in CI
// before it is ever handed to Rewrite.
type ValidateFilter struct {
	File string `arg:"" type:"path" help:"Filter file to parse and compile"`
}

func (c *ValidateFilter) Run(g *Globals) error {
	f, err := os.Open(c.File)
	if err != nil {
		return &ErrExitCode{ExitCode: 1, Message: err.Error()}
	}
	defer f.Close()

	patterns, err := pathfilter.ParsePatterns(f)
	if err != nil {
		return &ErrExitCode{ExitCode: 1, Message: fmt.Sprintf("parse %s: %v", c.File, err)}
	}
	if len(patterns) == 0 {
		return &ErrExitCode{ExitCode: 1, Message: fmt.Sprintf("%s contains no patterns", c.File)}
	}

	filter := pathfilter.New(patterns)
	fmt.Printf("%s: ok, %d pattern(s), fingerprint %s\n", c.File, len(patterns), filter.Fingerprint())
	g.DbgPrint("patterns: %v", patterns)
	return nil
}
