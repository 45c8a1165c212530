package signal

import (
	"context"
	"io/fs"
	"sort"
	"time"

	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/pulse"
)

// ErrorCode classifies why a file, intersection or day did not succeed.
type ErrorCode string

const (
	CodeNone              ErrorCode = ""
	CodeMalformedPath     ErrorCode = "malformed_path"
	CodeMalformedFilename ErrorCode = "malformed_filename"
	CodeDecoderLaunch     ErrorCode = "decoder_launch"
	CodeTimeout           ErrorCode = "timeout"
	CodeMissingOutput     ErrorCode = "missing_output"
	CodeMalformedTable    ErrorCode = "malformed_table"
	CodeFilesystem        ErrorCode = "filesystem"
	CodePersist           ErrorCode = "persist"
	CodeCancelled         ErrorCode = "cancelled"
	CodePanic             ErrorCode = "panic"
	CodeUnknown           ErrorCode = "unknown"
)

// Classify maps an error onto an ErrorCode by the sentinel it wraps.
func Classify(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeNone
	case errors.IsAny(err, context.Canceled, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, ErrMalformedPath):
		return CodeMalformedPath
	case errors.Is(err, ErrMalformedFilename):
		return CodeMalformedFilename
	case errors.Is(err, ErrDecoderLaunch):
		return CodeDecoderLaunch
	case errors.Is(err, ErrDecoderTimeout):
		return CodeTimeout
	case errors.Is(err, ErrMissingOutput):
		return CodeMissingOutput
	case errors.Is(err, ErrMalformedTable):
		return CodeMalformedTable
	case errors.Is(err, pulse.ErrJobPanicked):
		return CodePanic
	case isFilesystem(err):
		return CodeFilesystem
	default:
		return CodeUnknown
	}
}

func isFilesystem(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) ||
		errors.IsAny(err, fs.ErrPermission, fs.ErrNotExist, fs.ErrExist)
}

// FileResult is the outcome of one raw file.
type FileResult struct {
	File      string    `json:"file"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Rows      int       `json:"rows"`
	Code      ErrorCode `json:"code,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// OK reports whether the file decoded and contributed to the artifact.
func (r FileResult) OK() bool {
	return r.Code == CodeNone
}

// IntersectionResult is the outcome of one intersection directory.
type IntersectionResult struct {
	Key          Key           `json:"key"`
	Dir          string        `json:"dir"`
	Files        []FileResult  `json:"files"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	Rows         int           `json:"rows"`
	Written      bool          `json:"written"`
	BitMaskPath  string        `json:"bit_mask_path,omitempty"`
	RawDataPath  string        `json:"raw_data_path,omitempty"`
	Persisted    bool          `json:"persisted"`
	PersistError string        `json:"persist_error,omitempty"`
	Code         ErrorCode     `json:"code,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}

// OK reports whether the intersection finished without an intersection-level
// error. Individual files may still have failed.
func (r IntersectionResult) OK() bool {
	return r.Code == CodeNone
}

func (r *IntersectionResult) addFile(fr FileResult) {
	r.Files = append(r.Files, fr)
	if fr.OK() {
		r.Succeeded++
		r.Rows += fr.Rows
	} else {
		r.Failed++
	}
}

func (r *IntersectionResult) setError(err error) {
	r.Code = Classify(err)
	r.Error = err.Error()
}

// DayResult is the outcome of one day directory.
type DayResult struct {
	Day           string               `json:"day"`
	Dir           string               `json:"dir"`
	Intersections []IntersectionResult `json:"intersections"`
	Skipped       []string             `json:"skipped,omitempty"`
	Code          ErrorCode            `json:"code,omitempty"`
	Error         string               `json:"error,omitempty"`
	Duration      time.Duration        `json:"duration_ns"`
}

// OK reports whether the day's directory was processed.
func (r DayResult) OK() bool {
	return r.Code == CodeNone
}

func (r *DayResult) setError(err error) {
	r.Code = Classify(err)
	r.Error = err.Error()
}

// BatchResult is the outcome of one batch run.
type BatchResult struct {
	RunID      string      `json:"run_id"`
	Year       string      `json:"year"`
	Month      string      `json:"month"`
	Workers    int         `json:"workers"`
	Days       []DayResult `json:"days"`
	Cancelled  bool        `json:"cancelled"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Totals summarises a batch.
type Totals struct {
	Days                int               `json:"days"`
	DaysFailed          int               `json:"days_failed"`
	Intersections       int               `json:"intersections"`
	IntersectionsFailed int               `json:"intersections_failed"`
	Artifacts           int               `json:"artifacts"`
	FilesOK             int               `json:"files_ok"`
	FilesFailed         int               `json:"files_failed"`
	Rows                int               `json:"rows"`
	ByCode              map[ErrorCode]int `json:"by_code"`
}

// Totals counts results across every level. ByCode counts each failed
// file, intersection and day once under its code.
func (b *BatchResult) Totals() Totals {
	t := Totals{ByCode: make(map[ErrorCode]int)}
	for _, d := range b.Days {
		t.Days++
		if !d.OK() {
			t.DaysFailed++
			t.ByCode[d.Code]++
		}
		for _, in := range d.Intersections {
			t.Intersections++
			if !in.OK() {
				t.IntersectionsFailed++
				t.ByCode[in.Code]++
			}
			if in.Written {
				t.Artifacts++
			}
			if in.PersistError != "" {
				t.ByCode[CodePersist]++
			}
			t.FilesOK += in.Succeeded
			t.FilesFailed += in.Failed
			t.Rows += in.Rows
			for _, f := range in.Files {
				if !f.OK() {
					t.ByCode[f.Code]++
				}
			}
		}
	}
	return t
}

// Diagnostic is one failure anywhere in the batch, flattened for logs and
// the failure ledger.
type Diagnostic struct {
	Day          string    `json:"day"`
	Intersection string    `json:"intersection,omitempty"`
	File         string    `json:"file,omitempty"`
	Code         ErrorCode `json:"code"`
	Message      string    `json:"message"`
}

// Diagnostics lists every failure in day, intersection, file order.
func (b *BatchResult) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.Days {
		if !d.OK() {
			out = append(out, Diagnostic{Day: d.Day, Code: d.Code, Message: d.Error})
		}
		for _, in := range d.Intersections {
			if !in.OK() {
				out = append(out, Diagnostic{Day: d.Day, Intersection: in.Key.Intersection, Code: in.Code, Message: in.Error})
			}
			if in.PersistError != "" {
				out = append(out, Diagnostic{Day: d.Day, Intersection: in.Key.Intersection, Code: CodePersist, Message: in.PersistError})
			}
			for _, f := range in.Files {
				if !f.OK() {
					out = append(out, Diagnostic{Day: d.Day, Intersection: in.Key.Intersection, File: f.File, Code: f.Code, Message: f.Error})
				}
			}
		}
	}
	return out
}

// Codes returns the codes present in t.ByCode, sorted.
func (t Totals) Codes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(t.ByCode))
	for c := range t.ByCode {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
