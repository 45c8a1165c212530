package signal

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/qntx-signal/errors"
)

// BitMaskTimeLayout is the timestamp format of bit_mask.csv.
const BitMaskTimeLayout = "2006-01-02 15:04:05"

// ParseFileTimestamp extracts the nominal timestamp of a raw file from its
// name. The extension is dropped and the stem split on "_"; tokens 2..5
// (zero-based) are year, month, day and a four-digit HHMM. The result has
// minute precision, in UTC.
//
//	SIEM_ISC1_2022_11_05_0815.dat -> 2022-11-05 08:15:00
func ParseFileTimestamp(name string) (time.Time, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Split(stem, "_")
	if len(tokens) < 6 {
		return time.Time{}, errors.Wrapf(ErrMalformedFilename, "%s: %d tokens, want at least 6", base, len(tokens))
	}

	year, ok1 := digits(tokens[2])
	month, ok2 := digits(tokens[3])
	day, ok3 := digits(tokens[4])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, errors.Wrapf(ErrMalformedFilename, "%s: date tokens %v", base, tokens[2:5])
	}

	hhmm := tokens[5]
	badTime := errors.Wrapf(ErrMalformedFilename, "%s: time token %q is not HHMM", base, hhmm)
	if len(hhmm) != 4 {
		return time.Time{}, badTime
	}
	hour, ok1 := digits(hhmm[:2])
	minute, ok2 := digits(hhmm[2:])
	if !ok1 || !ok2 || hour > 23 || minute > 59 {
		return time.Time{}, badTime
	}

	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day {
		return time.Time{}, errors.Wrapf(ErrMalformedFilename, "%s: no such date %d-%d-%d", base, year, month, day)
	}
	return ts, nil
}

// digits parses s as an unsigned decimal. Unlike strconv.Atoi it rejects a
// leading sign.
func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
