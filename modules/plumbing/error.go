package plumbing

import (
	"errors"
	"fmt"
)

// ErrStop is a sentinel an iteration callback can return to stop early.
var ErrStop = errors.New("stop iter")

// noSuchObject is returned when an ObjectStore cannot resolve a requested oid.
type noSuchObject struct {
	oid Hash
}

func (e *noSuchObject) Error() string {
	return fmt.Sprintf("zeta-subset: no such object: %s", e.oid)
}

// NoSuchObject wraps oid as a "missing object" error.
func NoSuchObject(oid Hash) error {
	return &noSuchObject{oid: oid}
}

// IsNoSuchObject reports whether err denotes a missing object.
func IsNoSuchObject(e error) bool {
	if e == nil {
		return false
	}
	_, ok := e.(*noSuchObject)
	return ok
}

func ExtractNoSuchObject(e error) (Hash, bool) {
	err, ok := e.(*noSuchObject)
	if !ok {
		return ZeroHash, false
	}
	return err.oid, true
}

// ErrResourceLocked is returned by a BranchUpdater when another process
// already holds the reference lock.
type ErrResourceLocked struct {
	name ReferenceName
}

func (err *ErrResourceLocked) Error() string {
	return fmt.Sprintf("reference '%s' locked", err.name)
}

func IsErrResourceLocked(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrResourceLocked)
	return ok
}

func NewErrResourceLocked(name ReferenceName) error {
	return &ErrResourceLocked{name: name}
}

// ErrRefChanged is returned when a compare-and-swap ref update's expected
// old value no longer matches what is on disk (spec's non-atomic-mid-rewrite
// invariant check).
type ErrRefChanged struct {
	Name     ReferenceName
	Expected Hash
	Actual   Hash
}

func (e *ErrRefChanged) Error() string {
	return fmt.Sprintf("reference '%s' changed concurrently: expected %s, found %s", e.Name, e.Expected, e.Actual)
}

func IsErrRefChanged(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrRefChanged)
	return ok
}

var ErrReferenceNotFound = errors.New("reference does not exist")
