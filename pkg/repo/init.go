package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/plumb/pkg/object"
)

// MetaDirName is the repository metadata directory created by Init. Tree
// building excludes it by name.
const MetaDirName = ".plumb"

// Init creates a new plumb repository at path. It creates the .plumb/
// directory structure: HEAD, objects/, and refs/heads/. Returns an error
// if a .plumb/ directory already exists.
func Init(path string) (*Repo, error) {
	plumbDir := filepath.Join(path, MetaDirName)

	// Fail if .plumb/ already exists.
	if _, err := os.Stat(plumbDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", plumbDir)
	}

	dirs := []string{
		filepath.Join(plumbDir, "objects"),
		filepath.Join(plumbDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(plumbDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir:  path,
		PlumbDir: plumbDir,
		Store:    object.NewStore(plumbDir),
	}, nil
}

// Open searches upward from path for a .plumb/ directory and opens the
// repository. Returns an error if no .plumb/ directory is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		plumbDir := filepath.Join(cur, MetaDirName)
		info, err := os.Stat(plumbDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir:  cur,
				PlumbDir: plumbDir,
				Store:    object.NewStore(plumbDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached filesystem root without finding .plumb/.
			return nil, fmt.Errorf("open: not a plumb repository (or any parent up to /)")
		}
		cur = parent
	}
}

// Head reads .plumb/HEAD. If the content starts with "ref: ", it returns
// the ref path (e.g., "refs/heads/main"). Otherwise it returns the raw
// content as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.PlumbDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}
