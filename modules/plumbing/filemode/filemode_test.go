package filemode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFragmentsBit(t *testing.T) {
	mode := Executable | Fragments
	require.True(t, mode.IsFragments())
	require.False(t, (Executable).IsFragments())
}

func TestToOSFileMode(t *testing.T) {
	cases := []FileMode{
		Regular,
		Regular | Fragments,
		Executable,
		Dir,
		Symlink,
		Submodule,
	}
	for _, m := range cases {
		_, err := m.ToOSFileMode()
		require.NoError(t, err)
	}
}

func TestFileModeJSON(t *testing.T) {
	type wrapper struct {
		A FileMode `json:"a"`
	}
	w := wrapper{A: Executable}
	b, err := json.Marshal(&w)
	require.NoError(t, err)

	var w2 wrapper
	require.NoError(t, json.Unmarshal(b, &w2))
	require.Equal(t, w.A, w2.A)
}

func TestNewRejectsGarbage(t *testing.T) {
	_, err := New("not-octal")
	require.Error(t, err)
}
