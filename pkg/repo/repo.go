package repo

import "github.com/odvcencio/plumb/pkg/object"

// Repo represents an opened plumb repository.
type Repo struct {
	RootDir  string        // working directory root
	PlumbDir string        // .plumb/ directory
	Store    *object.Store // content-addressed object store
}
