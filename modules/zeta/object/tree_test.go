package object

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing/filemode"
)

func TestTreeEntryType(t *testing.T) {
	cases := []struct {
		mode filemode.FileMode
		want ObjectType
	}{
		{filemode.Dir, TreeObject},
		{filemode.Executable, BlobObject},
		{filemode.Executable | filemode.Fragments, BlobObject},
		{filemode.Regular | filemode.Fragments, BlobObject},
		{filemode.Symlink, BlobObject},
		{filemode.Submodule, CommitObject},
	}
	for _, c := range cases {
		e := &TreeEntry{Mode: c.mode}
		require.Equal(t, c.want, e.Type())
	}
}

func TestSubtreeOrder(t *testing.T) {
	entries := []*TreeEntry{
		{Name: "zeta", Mode: filemode.Regular},
		{Name: "apple", Mode: filemode.Dir},
		{Name: "banana", Mode: filemode.Regular},
	}
	tr := NewTree(entries)
	names := make([]string, len(tr.Entries))
	for i, e := range tr.Entries {
		names[i] = e.Name
	}
	require.Equal(t, []string{"apple", "banana", "zeta"}, names)
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	tr := NewTree([]*TreeEntry{
		{Name: "a.txt", Mode: filemode.Regular, Hash: plumbing.NewHash("1111111111111111111111111111111111111111111111111111111111111111")},
		{Name: "sub", Mode: filemode.Dir, Hash: plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222")},
	})

	var buf bytes.Buffer
	require.NoError(t, tr.Encode(&buf))

	decoded := &Tree{}
	require.NoError(t, decoded.Decode(&reader{Reader: bytes.NewReader(buf.Bytes()[4:]), objectType: TreeObject}))
	require.True(t, tr.Equal(decoded))
}

func TestTreeEntryLookup(t *testing.T) {
	tr := NewTree([]*TreeEntry{
		{Name: "one", Mode: filemode.Regular},
	})
	e, err := tr.Entry("one")
	require.NoError(t, err)
	require.Equal(t, "one", e.Name)

	_, err = tr.Entry("missing")
	require.True(t, IsErrEntryNotFound(err))
}
