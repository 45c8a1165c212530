package signal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/errors"
)

// Artifact file names and headers.
const (
	BitMaskFile = "bit_mask.csv"
	RawDataFile = "raw_data.csv"
)

var (
	BitMaskHeader = []string{"signalid", "timestamp", "flag"}
	RawDataHeader = []string{"signalid", "timestamp", "eventcode", "eventparam"}
)

// BitMaskEntry records that one raw file decoded successfully.
type BitMaskEntry struct {
	SignalID  string    `json:"signalid"`
	Timestamp time.Time `json:"timestamp"`
	Flag      int       `json:"flag"`
}

// RawFileRecord is the decoded content of one raw file.
type RawFileRecord struct {
	Intersection string  `json:"intersection"`
	File         string  `json:"file"`
	Events       []Event `json:"events"`
}

// Artifact is the aggregate of one intersection-day. It is built after every
// file has been processed and written exactly once.
type Artifact struct {
	Key     Key
	BitMask []BitMaskEntry
	Raw     []RawFileRecord
}

// Empty reports whether no file decoded; empty artifacts are never written.
func (a *Artifact) Empty() bool {
	return len(a.BitMask) == 0
}

// BitMaskRows renders the bit mask table body.
func (a *Artifact) BitMaskRows() [][]string {
	rows := make([][]string, 0, len(a.BitMask))
	for _, e := range a.BitMask {
		rows = append(rows, []string{e.SignalID, e.Timestamp.Format(BitMaskTimeLayout), strconv.Itoa(e.Flag)})
	}
	return rows
}

// RawDataRows concatenates every record's events in file order, each row
// prefixed with the intersection id.
func (a *Artifact) RawDataRows() [][]string {
	var n int
	for _, r := range a.Raw {
		n += len(r.Events)
	}
	rows := make([][]string, 0, n)
	for _, r := range a.Raw {
		for _, ev := range r.Events {
			rows = append(rows, []string{r.Intersection, ev.Timestamp, ev.EventCode, ev.EventParam})
		}
	}
	return rows
}

// WriteArtifact writes bit_mask.csv and raw_data.csv for a.Key under the two
// roots, replacing earlier files atomically. Directories are created as
// needed. Writing an empty artifact is an error.
func WriteArtifact(a *Artifact, bitMaskRoot, rawDataRoot string) (bitMaskPath, rawDataPath string, err error) {
	if a.Empty() {
		return "", "", errors.Newf("refusing to write empty artifact for %s", a.Key)
	}

	bitDir, err := EnsureDirectory(bitMaskRoot, a.Key)
	if err != nil {
		return "", "", err
	}
	rawDir, err := EnsureDirectory(rawDataRoot, a.Key)
	if err != nil {
		return "", "", err
	}

	bitMaskPath = filepath.Join(bitDir, BitMaskFile)
	if err := writeCSVAtomic(bitMaskPath, BitMaskHeader, a.BitMaskRows()); err != nil {
		return "", "", err
	}
	rawDataPath = filepath.Join(rawDir, RawDataFile)
	if err := writeCSVAtomic(rawDataPath, RawDataHeader, a.RawDataRows()); err != nil {
		return "", "", err
	}
	return bitMaskPath, rawDataPath, nil
}

// writeCSVAtomic writes header and rows to a temp file next to path and
// renames it into place, so readers never see a partial table.
func writeCSVAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write header of %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	if err := os.Chmod(tmpName, am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}
