package signal

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/errors"
)

// EnsureDirectory creates root/year, root/year/month, root/year/month/day
// and root/year/month/day/intersection in turn, checking each for existence
// first. Existing directories, including ones created concurrently by
// another worker, are success. root itself must already exist.
// Returns the intersection directory.
func EnsureDirectory(root string, key Key) (string, error) {
	if err := key.validate(); err != nil {
		return "", err
	}

	dir := root
	for _, seg := range key.segments() {
		dir = filepath.Join(dir, seg)
		if err := ensureDir(dir); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return errors.WithStack(&fs.PathError{Op: "mkdir", Path: dir, Err: syscall.ENOTDIR})
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return errors.Wrapf(err, "stat %s", dir)
	}

	if err := os.Mkdir(dir, am.DefaultDirPermissions); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Lost a race with another creator; make sure it is a directory.
			info, statErr := os.Stat(dir)
			if statErr == nil && info.IsDir() {
				return nil
			}
		}
		return errors.Wrapf(err, "create %s", dir)
	}
	return nil
}
