package object

import (
	"errors"
	"fmt"
)

// Hash is a 40-character hex-encoded SHA-1 digest.
type Hash string

// Kind identifies the kind of object stored. The set is closed: blob,
// tree, and commit are the only kinds the codec encodes or decodes, and
// an unknown tag on decode is an error, never a silent fallthrough.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

// ParseKind maps a header kind token onto the closed kind set.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBlob, KindTree, KindCommit:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir  = "40000"
	TreeModeFile = "100644"
)

// Sentinel errors returned by the codec. Callers match them with
// errors.Is; every return site wraps them with the hash or path involved.
var (
	ErrNotFound           = errors.New("object not found")
	ErrCorruptObject      = errors.New("corrupt object")
	ErrMalformedHeader    = errors.New("malformed object header")
	ErrUnknownKind        = errors.New("unknown object kind")
	ErrInvalidSize        = errors.New("invalid object size")
	ErrMalformedTreeEntry = errors.New("malformed tree entry")
)
