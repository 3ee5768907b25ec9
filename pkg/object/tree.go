package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// TreeEntry is one entry in a tree object's payload: a mode, a raw
// filename, and the hash of the referenced blob (file) or subtree
// (directory). The hash is a weak reference into the store, resolved only
// on demand.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool { return e.Mode == TreeModeDir }

// Kind returns the object kind the entry's hash refers to.
func (e TreeEntry) Kind() Kind {
	if e.IsDir() {
		return KindTree
	}
	return KindBlob
}

// MarshalTreeEntries serializes entries into the tree payload layout,
// one entry after another:
//
//	"<mode> " ++ name ++ NUL ++ 20 raw hash bytes
//
// Entries are sorted by name (byte-wise ascending) before encoding. The
// parent tree's hash is only deterministic, and only matches a reference
// implementation's hash for the same directory contents, under this order.
func MarshalTreeEntries(entries []TreeEntry) ([]byte, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("marshal tree entry %q: %w", e.Name, err)
		}
		fmt.Fprintf(&buf, "%s %s\x00", e.Mode, e.Name)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// TreeIter is a lazy, forward-only iterator over a tree payload stream.
// It is consumed once; restart by re-reading the object.
type TreeIter struct {
	br *bufio.Reader
}

// NewTreeIter wraps a tree payload reader for entry-by-entry decoding.
func NewTreeIter(r io.Reader) *TreeIter {
	return &TreeIter{br: bufio.NewReader(r)}
}

// Next returns the next entry. It returns io.EOF at the clean end of the
// payload; any other short read is ErrMalformedTreeEntry, never a silent
// truncation. The pre-NUL text splits on the first space only, so names
// may contain spaces but modes may not.
func (it *TreeIter) Next() (TreeEntry, error) {
	head, err := it.br.ReadBytes(0)
	if err == io.EOF && len(head) == 0 {
		return TreeEntry{}, io.EOF
	}
	if err != nil {
		return TreeEntry{}, fmt.Errorf("%w: unterminated entry header", ErrMalformedTreeEntry)
	}
	head = head[:len(head)-1]

	mode, name, ok := strings.Cut(string(head), " ")
	if !ok || mode == "" || name == "" {
		return TreeEntry{}, fmt.Errorf("%w: %q", ErrMalformedTreeEntry, head)
	}

	raw := make([]byte, RawLen)
	if _, err := io.ReadFull(it.br, raw); err != nil {
		return TreeEntry{}, fmt.Errorf("%w: short hash for entry %q", ErrMalformedTreeEntry, name)
	}
	return TreeEntry{Mode: mode, Name: name, Hash: HashFromRaw(raw)}, nil
}

// ReadTree reads a tree object and decodes all of its entries.
func (s *Store) ReadTree(h Hash) ([]TreeEntry, error) {
	kind, data, err := s.ReadBytes(h)
	if err != nil {
		return nil, err
	}
	if kind != KindTree {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, kind, KindTree)
	}

	var entries []TreeEntry
	it := NewTreeIter(bytes.NewReader(data))
	for {
		e, err := it.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", h, err)
		}
		entries = append(entries, e)
	}
}
