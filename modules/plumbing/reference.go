package plumbing

import (
	"strings"
)

const (
	ReferencePrefix = "refs/"
	refHeadPrefix   = ReferencePrefix + "heads/"
	symrefPrefix    = "ref: "
)

const HEAD ReferenceName = "HEAD"

// ReferenceType distinguishes a direct (hash) reference from a symbolic one.
type ReferenceType int8

const (
	InvalidReference  ReferenceType = 0
	HashReference     ReferenceType = 1
	SymbolicReference ReferenceType = 2
)

// ReferenceName is a fully-qualified branch ref, e.g. "refs/heads/main".
type ReferenceName string

// NewBranchReferenceName qualifies a short branch name.
func NewBranchReferenceName(name string) ReferenceName {
	if strings.HasPrefix(name, ReferencePrefix) {
		return ReferenceName(name)
	}
	return ReferenceName(refHeadPrefix + name)
}

func (r ReferenceName) IsBranch() bool {
	return strings.HasPrefix(string(r), refHeadPrefix)
}

func (r ReferenceName) BranchName() string {
	return strings.TrimPrefix(string(r), refHeadPrefix)
}

func (r ReferenceName) String() string {
	return string(r)
}

// Reference is a named pointer, either directly at an ObjectId or at
// another ReferenceName (symbolic, e.g. HEAD).
type Reference struct {
	t      ReferenceType
	n      ReferenceName
	h      Hash
	target ReferenceName
}

// NewReferenceFromStrings builds a Reference from its on-disk textual form.
func NewReferenceFromStrings(name, target string) *Reference {
	n := ReferenceName(name)
	if strings.HasPrefix(target, symrefPrefix) {
		return NewSymbolicReference(n, ReferenceName(target[len(symrefPrefix):]))
	}
	return NewHashReference(n, NewHash(target))
}

func NewSymbolicReference(n, target ReferenceName) *Reference {
	return &Reference{t: SymbolicReference, n: n, target: target}
}

func NewHashReference(n ReferenceName, h Hash) *Reference {
	return &Reference{t: HashReference, n: n, h: h}
}

func (r *Reference) Type() ReferenceType  { return r.t }
func (r *Reference) Name() ReferenceName  { return r.n }
func (r *Reference) Hash() Hash           { return r.h }
func (r *Reference) Target() ReferenceName { return r.target }

func (r *Reference) String() string {
	var ref string
	switch r.t {
	case HashReference:
		ref = r.h.String()
	case SymbolicReference:
		ref = symrefPrefix + r.target.String()
	default:
		return ""
	}
	var v strings.Builder
	v.WriteString(ref)
	v.WriteByte(' ')
	v.WriteString(r.n.String())
	return v.String()
}
