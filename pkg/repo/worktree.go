package repo

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/odvcencio/plumb/pkg/object"
)

// ErrNotADirectory reports a BuildTree target that exists but is not a
// directory.
var ErrNotADirectory = errors.New("not a directory")

// BuildTree recursively serializes the directory at dir into blob and
// tree objects, bottom-up, and returns the root tree hash. Children are
// visited in byte-wise ascending name order so the result is
// deterministic regardless of filesystem listing order.
//
// A directory that contains no files, transitively, produces no object at
// all: BuildTree returns an empty hash and the caller must not reference
// or print it. Empty subdirectories are likewise omitted from their
// parent's payload.
//
// Recursion depth is bounded only by the filesystem and the call stack;
// extreme nesting can exhaust stack space.
func (r *Repo) BuildTree(dir string) (object.Hash, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("build tree %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("build tree %q: %w", dir, ErrNotADirectory)
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("build tree %q: %w", dir, err)
	}

	// Fixed exclusion of repository metadata by name; this is not a
	// general ignore mechanism.
	names := make([]string, 0, len(children))
	byName := make(map[string]os.DirEntry, len(children))
	for _, c := range children {
		if c.Name() == MetaDirName || c.Name() == ".git" {
			continue
		}
		names = append(names, c.Name())
		byName[c.Name()] = c
	}

	// Sibling order must be fixed before recursion so child writes land
	// in the same order the parent payload references them.
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		child := byName[name]
		full := filepath.Join(dir, name)
		switch {
		case child.IsDir():
			sub, err := r.BuildTree(full)
			if err != nil {
				return "", err
			}
			if sub == "" {
				// Transitively empty subtree: no object, no entry.
				continue
			}
			entries = append(entries, object.TreeEntry{
				Mode: object.TreeModeDir,
				Name: name,
				Hash: sub,
			})
		case child.Type().IsRegular():
			data, err := os.ReadFile(full)
			if err != nil {
				return "", fmt.Errorf("build tree: read %q: %w", full, err)
			}
			blobHash, err := r.Store.Write(object.KindBlob, data)
			if err != nil {
				return "", fmt.Errorf("build tree: write blob %q: %w", full, err)
			}
			entries = append(entries, object.TreeEntry{
				Mode: object.TreeModeFile,
				Name: name,
				Hash: blobHash,
			})
		default:
			// No tree mode models symlinks or other special files; skip.
		}
	}

	if len(entries) == 0 {
		return "", nil
	}

	payload, err := object.MarshalTreeEntries(entries)
	if err != nil {
		return "", fmt.Errorf("build tree %q: %w", dir, err)
	}
	h, err := r.Store.Write(object.KindTree, payload)
	if err != nil {
		return "", fmt.Errorf("build tree: write tree %q: %w", dir, err)
	}
	return h, nil
}

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode string
	Hash object.Hash
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full slash-separated paths.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	entries, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path: fullPath,
				Mode: entry.Mode,
				Hash: entry.Hash,
			})
		}
	}
	return result, nil
}
