package memo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

func TestPutIfAbsentFirstWriteWins(t *testing.T) {
	tbl := NewTable()
	src := plumbing.NewHash("1111111111111111111111111111111111111111111111111111111111111111")
	dst1 := plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222")
	dst2 := plumbing.NewHash("3333333333333333333333333333333333333333333333333333333333333333")

	got := tbl.PutIfAbsent(src, Entry{Mapped: true, Target: dst1})
	require.Equal(t, dst1, got.Target)

	got = tbl.PutIfAbsent(src, Entry{Mapped: true, Target: dst2})
	require.Equal(t, dst1, got.Target, "second writer must adopt the first writer's mapping")
}

func TestTableRangeAndReset(t *testing.T) {
	tbl := NewTable()
	src := plumbing.NewHash("4444444444444444444444444444444444444444444444444444444444444444")
	tbl.PutIfAbsent(src, Entry{Mapped: false})
	require.Equal(t, 1, tbl.Len())

	var seen int
	tbl.Range(func(plumbing.Hash, Entry) bool {
		seen++
		return true
	})
	require.Equal(t, 1, seen)

	tbl.Reset()
	require.Equal(t, 0, tbl.Len())
}
