package signal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/logger"
	"github.com/teranos/qntx-signal/pulse"
)

// ProcessDay runs ProcessIntersection for every intersection directory of
// dayDir, one after another in name order. Entries whose name contains the
// skip marker are left alone. An intersection that fails, or panics, is
// recorded and logged; its siblings still run. Only a failure to list dayDir
// itself, or cancellation, is returned.
func (a *Aggregator) ProcessDay(ctx context.Context, dayDir string) (res DayResult, err error) {
	start := time.Now()
	res = DayResult{Day: filepath.Base(dayDir), Dir: dayDir}
	defer func() { res.Duration = time.Since(start) }()

	log := logger.LoggerFromContext(ctx, a.logger).With(logger.FieldPath, dayDir)

	dirs, skipped, err := a.listIntersections(dayDir)
	if err != nil {
		res.setError(err)
		log.Errorw("Day listing failed", logger.FieldError, err)
		return res, err
	}
	res.Skipped = skipped

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			res.setError(err)
			return res, err
		}

		in, err := a.safeProcessIntersection(ctx, dir)
		res.Intersections = append(res.Intersections, in)
		if err == nil {
			continue
		}
		if Classify(err) == CodeCancelled {
			res.setError(err)
			return res, err
		}
		log.Errorw("Intersection failed",
			logger.FieldIntersection, filepath.Base(dir),
			logger.FieldDay, res.Day,
			logger.FieldErrorCode, string(in.Code),
			logger.FieldError, err)
	}

	log.Infow("Day finished",
		logger.FieldDay, res.Day,
		logger.FieldCount, len(res.Intersections),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, nil
}

// safeProcessIntersection turns a panic into an intersection-level error.
func (a *Aggregator) safeProcessIntersection(ctx context.Context, dir string) (res IntersectionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(pulse.ErrJobPanicked, "intersection %s: %v", dir, r)
			res.Dir = dir
			res.Key, _ = KeyFromDir(dir)
			res.setError(err)
			a.logger.Errorw("Intersection panicked",
				logger.FieldPath, dir,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	return a.ProcessIntersection(ctx, dir)
}

// listIntersections returns the subdirectories of dayDir, sorted, split into
// those to process and those whose name carries the skip marker. Only the
// entry name is matched so a marker inside the input root does not hide
// every intersection.
func (a *Aggregator) listIntersections(dayDir string) (dirs, skipped []string, err error) {
	entries, err := os.ReadDir(dayDir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "list day %s", dayDir)
	}

	for _, e := range entries {
		path := filepath.Join(dayDir, e.Name())
		if !isDir(e, path) {
			continue
		}
		if strings.Contains(e.Name(), a.cfg.SkipMarker) {
			skipped = append(skipped, path)
			continue
		}
		dirs = append(dirs, path)
	}
	sort.Strings(dirs)
	return dirs, skipped, nil
}

// isDir follows symlinks so linked intersection folders are processed.
func isDir(e os.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
	return false
}
