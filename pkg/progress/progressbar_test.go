package progress

import (
	"testing"
	"time"
)

func TestReporterQuietIsNoop(t *testing.T) {
	r := NewReporter(true)
	bar := r.Phase("rewrite", 10)
	bar.SetTotal(20)
	bar.Increment()
	bar.Done()
	r.Wait()
}

func TestSummaryFprintQuietDoesNotPanic(t *testing.T) {
	s := Summary{Discovered: 3, Rewritten: 2, Collapsed: 1, Elapsed: 2 * time.Second}
	s.Fprint(true)
}
