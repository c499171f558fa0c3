package progress

import (
	"fmt"
	"os"
	"time"
)

// Summary reports the closing line of a run: how many commits were
// walked, how many were kept (memo hits included) versus collapsed, and
// how long it took, following pkg/migrate.Execute's closing fmt.Fprintf report.
type Summary struct {
	Discovered int
	Rewritten  int
	Collapsed  int
	Elapsed    time.Duration
}

func (s Summary) Fprint(quiet bool) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "discovered %d commit(s), rewrote %d, collapsed %d, in %v\n",
		s.Discovered, s.Rewritten, s.Collapsed, s.Elapsed.Truncate(time.Millisecond))
}
