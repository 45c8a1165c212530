// Package signal ingests traffic-signal controller logs.
//
// Raw files live under {input}/{year}/{month}/{day}/{intersection}/. Each
// file is decoded by an external tool into an event table, and every
// intersection-day yields bit_mask.csv (one row per decoded file) and
// raw_data.csv (all decoded events, prefixed with the intersection id).
// Days run in parallel on a pulse.WorkerPool; everything below a day is
// sequential.
package signal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/qntx-signal/errors"
)

// Key identifies one intersection-day. Segments are kept exactly as they
// appear on disk ("2022", "11", "05", "ISC1").
type Key struct {
	Year         string `json:"year"`
	Month        string `json:"month"`
	Day          string `json:"day"`
	Intersection string `json:"intersection"`
}

func (k Key) segments() []string {
	return []string{k.Year, k.Month, k.Day, k.Intersection}
}

// Dir returns root/year/month/day/intersection.
func (k Key) Dir(root string) string {
	return filepath.Join(append([]string{root}, k.segments()...)...)
}

// File returns the path of name inside k.Dir(root).
func (k Key) File(root, name string) string {
	return filepath.Join(k.Dir(root), name)
}

// String renders the key as year/month/day/intersection.
func (k Key) String() string {
	return strings.Join(k.segments(), "/")
}

func (k Key) validate() error {
	for _, seg := range k.segments() {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsRune(seg, os.PathSeparator) {
			return errors.Wrapf(ErrMalformedPath, "invalid key %q", k.String())
		}
	}
	return nil
}

// KeyFromDir derives the key of an intersection directory from its last
// four path segments.
func KeyFromDir(dir string) (Key, error) {
	parts := splitPath(dir)
	if len(parts) < 4 {
		return Key{}, errors.Wrapf(ErrMalformedPath, "%s: want .../year/month/day/intersection", dir)
	}
	n := len(parts)
	key := Key{Year: parts[n-4], Month: parts[n-3], Day: parts[n-2], Intersection: parts[n-1]}
	return key, key.validate()
}

// FilePath is a raw file path decomposed positionally from the end:
// .../{city}/{year}/{month}/{day}/{intersection}/{name}
type FilePath struct {
	City string
	Key  Key
	Name string
}

// SplitFilePath decomposes path. Fewer than six trailing segments is
// ErrMalformedPath.
func SplitFilePath(path string) (FilePath, error) {
	parts := splitPath(path)
	if len(parts) < 6 {
		return FilePath{}, errors.Wrapf(ErrMalformedPath, "%s: want .../city/year/month/day/intersection/file", path)
	}
	n := len(parts)
	fp := FilePath{
		City: parts[n-6],
		Key: Key{
			Year:         parts[n-5],
			Month:        parts[n-4],
			Day:          parts[n-3],
			Intersection: parts[n-2],
		},
		Name: parts[n-1],
	}
	return fp, fp.Key.validate()
}

// DecodedName is the file's name in the converted tree. The full raw name
// is kept so raw files differing only in extension stay distinct.
func (fp FilePath) DecodedName() string {
	return fp.Name + ".txt"
}

// splitPath returns the non-empty segments of the cleaned path.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
