package signal

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/logger"
)

// Roots are the three output trees, each laid out year/month/day/intersection.
type Roots struct {
	Converted string `json:"converted"`
	BitMask   string `json:"bit_mask"`
	RawData   string `json:"raw_data"`
}

// AggregatorConfig configures intersection and day processing.
type AggregatorConfig struct {
	Roots       Roots
	HeaderLines int    // decoded table preamble; <= 0 means am.DefaultHeaderLines
	SkipMarker  string // day entries whose name contains this are skipped; "" means am.DefaultSkipMarker
}

// Aggregator turns intersection directories into artifacts. It holds no
// per-job state and is safe for concurrent use by several day workers.
type Aggregator struct {
	cfg     AggregatorConfig
	decoder Decoder
	store   Store
	logger  *zap.SugaredLogger
}

// NewAggregator creates an aggregator. store may be nil.
func NewAggregator(cfg AggregatorConfig, decoder Decoder, store Store, log *zap.SugaredLogger) *Aggregator {
	if cfg.HeaderLines <= 0 {
		cfg.HeaderLines = am.DefaultHeaderLines
	}
	if cfg.SkipMarker == "" {
		cfg.SkipMarker = am.DefaultSkipMarker
	}
	if log == nil {
		log = logger.ComponentLogger("signal")
	}
	return &Aggregator{cfg: cfg, decoder: decoder, store: store, logger: logger.AddIXSymbol(log)}
}

// Prepare creates the output roots.
func (a *Aggregator) Prepare() error {
	for _, root := range []string{a.cfg.Roots.Converted, a.cfg.Roots.BitMask, a.cfg.Roots.RawData} {
		if err := os.MkdirAll(root, am.DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "create output root %s", root)
		}
	}
	return nil
}

// accumulator collects one intersection's successful files. It lives only
// inside a single ProcessIntersection call.
type accumulator struct {
	bitMask []BitMaskEntry
	raw     []RawFileRecord
}

// ProcessIntersection decodes every file in dir in name order and writes the
// intersection's artifact if at least one file succeeded.
//
// File-level problems are recorded on the result and never returned. The
// returned error is for problems that stop the whole intersection: an
// unreadable directory, a directory that cannot be created, a failed
// artifact write, or cancellation.
func (a *Aggregator) ProcessIntersection(ctx context.Context, dir string) (res IntersectionResult, err error) {
	start := time.Now()
	res = IntersectionResult{Dir: dir}
	defer func() { res.Duration = time.Since(start) }()

	// The flush key is fixed here, once, from the directory itself.
	key, err := KeyFromDir(dir)
	if err != nil {
		res.setError(err)
		return res, err
	}
	res.Key = key
	log := logger.ChildLogger(logger.LoggerFromContext(ctx, a.logger),
		logger.FieldIntersection, key.Intersection,
		logger.FieldDay, key.Year+"-"+key.Month+"-"+key.Day)

	files, err := listFiles(dir)
	if err != nil {
		res.setError(err)
		return res, err
	}

	var acc accumulator
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			res.setError(err)
			return res, err
		}

		fr, record, err := a.processFile(ctx, log, path)
		if err != nil {
			res.setError(err)
			return res, err
		}
		res.addFile(fr)
		if !fr.OK() {
			continue
		}
		acc.bitMask = append(acc.bitMask, BitMaskEntry{SignalID: key.Intersection, Timestamp: fr.Timestamp, Flag: 1})
		acc.raw = append(acc.raw, *record)
	}

	if len(acc.bitMask) == 0 {
		log.Infow("No files decoded, nothing written", logger.FieldFailed, res.Failed)
		return res, nil
	}

	artifact := &Artifact{Key: key, BitMask: acc.bitMask, Raw: acc.raw}
	res.BitMaskPath, res.RawDataPath, err = WriteArtifact(artifact, a.cfg.Roots.BitMask, a.cfg.Roots.RawData)
	if err != nil {
		res.setError(err)
		return res, err
	}
	res.Written = true

	if a.store != nil {
		if err := a.store.Persist(ctx, logger.RunIDFromContext(ctx), artifact); err != nil {
			res.PersistError = err.Error()
			log.Errorw("Persisting artifact failed", logger.FieldError, err)
		} else {
			res.Persisted = true
		}
	}

	log.Infow("Intersection flushed",
		logger.FieldSucceeded, res.Succeeded,
		logger.FieldFailed, res.Failed,
		logger.FieldRows, res.Rows,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, nil
}

// processFile runs one file through path decomposition, timestamp parsing,
// directory setup, decoding and table parsing. Only cancellation is returned
// as an error; everything else becomes a failed FileResult.
func (a *Aggregator) processFile(ctx context.Context, log *zap.SugaredLogger, path string) (FileResult, *RawFileRecord, error) {
	fr := FileResult{File: filepath.Base(path)}
	fail := func(err error) (FileResult, *RawFileRecord, error) {
		fr.Code = Classify(err)
		if fr.Code == CodeCancelled {
			return fr, nil, err
		}
		fr.Error = err.Error()

		// Decode failures are expected in field data; anything else points
		// at the environment.
		logf := log.Errorw
		if errors.IsDecodeFailure(err) {
			logf = log.Warnw
		}
		logf("File skipped",
			logger.FieldFile, fr.File,
			logger.FieldErrorCode, string(fr.Code),
			logger.FieldError, fr.Error)
		return fr, nil, nil
	}

	fp, err := SplitFilePath(path)
	if err != nil {
		return fail(err)
	}
	ts, err := ParseFileTimestamp(fp.Name)
	if err != nil {
		return fail(err)
	}
	fr.Timestamp = ts

	for _, root := range []string{a.cfg.Roots.Converted, a.cfg.Roots.BitMask, a.cfg.Roots.RawData} {
		if _, err := EnsureDirectory(root, fp.Key); err != nil {
			return fail(err)
		}
	}
	output := fp.Key.File(a.cfg.Roots.Converted, fp.DecodedName())

	if err := a.decoder.Decode(ctx, path, output); err != nil {
		return fail(err)
	}

	events, err := ReadDecodedTable(output, a.cfg.HeaderLines)
	if err != nil {
		return fail(err)
	}

	fr.Rows = len(events)
	return fr, &RawFileRecord{Intersection: fp.Key.Intersection, File: fp.Name, Events: events}, nil
}

// listFiles returns the regular files of dir sorted by name. The order is
// the row order of raw_data.csv.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list intersection %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
