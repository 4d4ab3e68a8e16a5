package metadata

import (
	"path"
	"strings"
)

// Root is the path of the root directory.
const Root = "/"

// ValidatePath checks that p is absolute and clean.
func ValidatePath(p string) error {
	if p == "" || p[0] != '/' || path.Clean(p) != p {
		return NewError(ErrInvalidArgument, "invalid path", p)
	}
	return nil
}

// Split returns the parent directory and base name of p. The root has no
// parent and returns ("", "").
func Split(p string) (dir, name string) {
	if p == Root {
		return "", ""
	}
	return path.Dir(p), path.Base(p)
}

// IsWithin reports whether p equals dir or lies below it.
func IsWithin(p, dir string) bool {
	if p == dir || dir == Root {
		return true
	}
	return strings.HasPrefix(p, dir+"/")
}

// Rebase moves p from under oldDir to under newDir. p must satisfy
// IsWithin(p, oldDir).
func Rebase(p, oldDir, newDir string) string {
	if p == oldDir {
		return newDir
	}
	return path.Join(newDir, strings.TrimPrefix(p, oldDir))
}
