package badger

import "github.com/marmos91/dfsclient/pkg/store/metadata"

// Key layout
//
//	e:<parent>\x00<name>   Entry (JSON)
//
// The root is stored under "e:\x00". Keying entries by parent keeps the
// children of a directory contiguous, so a listing is one prefix scan that
// already yields names in sorted order. The NUL separator cannot occur in
// a path and keeps "/a" and "/ab" apart.
const prefixEntry = "e:"

func keyEntry(path string) []byte {
	dir, name := metadata.Split(path)
	return []byte(prefixEntry + dir + "\x00" + name)
}

func keyChildPrefix(dir string) []byte {
	return []byte(prefixEntry + dir + "\x00")
}
