// Package filemode reconstructs the small subset of POSIX file modes a
// tree entry can carry: regular file, executable, directory, symlink, and
// submodule (gitlink), plus a high "Fragments" bit used by the object
// format to flag a tree entry that points at a Fragments object instead
// of a Blob.
package filemode

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strconv"
)

// FileMode mirrors a subset of a POSIX st_mode value.
type FileMode uint32

const (
	Regular    FileMode = 0100644
	Deprecated FileMode = 0100664
	Executable FileMode = 0100755
	Dir        FileMode = 0040000
	Symlink    FileMode = 0120000
	Submodule  FileMode = 0160000

	// Fragments flags a tree entry whose blob is split across Fragments
	// chunks rather than stored inline/whole.
	Fragments FileMode = 0001000
)

const (
	sIFMT  = FileMode(0170000)
	sIFREG = FileMode(0100000)
	sIFDIR = FileMode(0040000)
	sIFLNK = FileMode(0120000)
	sIFGIT = FileMode(0160000)
)

// New parses the octal mode string found in a tree entry, e.g. "100644".
func New(s string) (FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("filemode: invalid mode %q: %w", s, err)
	}
	return FileMode(n), nil
}

func (m FileMode) IsRegular() bool   { return m&sIFMT == sIFREG && m&Executable != Executable }
func (m FileMode) IsDir() bool       { return m&sIFMT == sIFDIR }
func (m FileMode) IsSymlink() bool   { return m&sIFMT == sIFLNK }
func (m FileMode) IsSubmodule() bool { return m&sIFMT == sIFGIT }
func (m FileMode) IsFragments() bool { return m&Fragments != 0 }

// ToOSFileMode maps to the closest standard-library fs.FileMode, for
// callers that need to materialize a tree to disk.
func (m FileMode) ToOSFileMode() (fs.FileMode, error) {
	base := m &^ Fragments
	switch {
	case base == Regular || base == Deprecated:
		return 0644, nil
	case base == Executable:
		return 0755, nil
	case base.IsDir():
		return fs.ModeDir | 0755, nil
	case base.IsSymlink():
		return fs.ModeSymlink | 0777, nil
	case base.IsSubmodule():
		return fs.ModeIrregular | 0644, nil
	default:
		return 0, fmt.Errorf("filemode: unsupported mode %o", uint32(m))
	}
}

func (m FileMode) String() string {
	return fmt.Sprintf("%o", uint32(m))
}

func (m FileMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *FileMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := New(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
