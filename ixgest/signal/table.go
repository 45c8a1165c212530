package signal

import (
	"bufio"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/teranos/qntx-signal/errors"
)

// Event is one decoded controller event. Values are kept verbatim; the
// decoder owns their format.
type Event struct {
	Timestamp  string `json:"timestamp"`
	EventCode  string `json:"event_code"`
	EventParam string `json:"event_param"`
}

// eventFields is the column count of a decoded table row.
const eventFields = 3

// ReadDecodedTable reads a decoder output file: headerLines preamble lines
// are discarded, then every row must have exactly three comma-separated
// fields. A missing file is ErrMissingOutput; a short preamble, a bad row
// or a table with no rows is ErrMalformedTable.
func ReadDecodedTable(path string, headerLines int) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrMissingOutput, "%s", path)
		}
		return nil, errors.Wrapf(err, "open decoded table %s", path)
	}
	defer f.Close()

	return parseDecodedTable(f, path, headerLines)
}

func parseDecodedTable(r io.Reader, name string, headerLines int) ([]Event, error) {
	br := bufio.NewReader(r)
	for i := 0; i < headerLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, errors.Wrapf(ErrMalformedTable, "%s: preamble ended after %d of %d lines", name, i, headerLines)
			}
			return nil, errors.Wrapf(err, "read preamble of %s", name)
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = eventFields
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var events []Event
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedTable, "%s: %v", name, err)
		}
		events = append(events, Event{
			Timestamp:  strings.TrimSpace(rec[0]),
			EventCode:  strings.TrimSpace(rec[1]),
			EventParam: strings.TrimSpace(rec[2]),
		})
	}

	if len(events) == 0 {
		return nil, errors.Wrapf(ErrMalformedTable, "%s: no event rows after preamble", name)
	}
	return events, nil
}
