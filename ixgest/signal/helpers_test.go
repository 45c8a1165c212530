package signal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// layout is a throwaway data tree: <root>/input/<year>/<month>/<day>/<intersection>/.
type layout struct {
	root  string
	roots Roots
}

func newLayout(t *testing.T) *layout {
	t.Helper()
	root := t.TempDir()
	return &layout{
		root: root,
		roots: Roots{
			Converted: filepath.Join(root, "converted"),
			BitMask:   filepath.Join(root, "bit_mask"),
			RawData:   filepath.Join(root, "raw_data"),
		},
	}
}

func (l *layout) input() string {
	return filepath.Join(l.root, "input")
}

// addFiles creates an intersection directory holding empty raw files.
func (l *layout) addFiles(t *testing.T, year, month, day, intersection string, names ...string) string {
	t.Helper()
	dir := filepath.Join(l.input(), year, month, day, intersection)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("raw"), 0o644))
	}
	return dir
}

func (l *layout) aggregator(t *testing.T, dec Decoder, store Store) *Aggregator {
	t.Helper()
	agg := NewAggregator(AggregatorConfig{Roots: l.roots}, dec, store, zaptest.NewLogger(t).Sugar())
	require.NoError(t, agg.Prepare())
	return agg
}

// writeDecoded writes a decoder-style table: six preamble lines then rows.
func writeDecoded(output string, rows ...string) error {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "preamble line %d\n", i+1)
	}
	for _, r := range rows {
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return os.WriteFile(output, []byte(b.String()), 0o644)
}

// fakeDecoder emits two events per file, stamped with the file's HHMM
// token, and produces no output for any file whose name contains failOn.
func fakeDecoder(failOn string) DecoderFunc {
	return func(ctx context.Context, input, output string) error {
		name := filepath.Base(input)
		if failOn != "" && strings.Contains(name, failOn) {
			return nil
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		hhmm := stem[strings.LastIndex(stem, "_")+1:]
		return writeDecoded(output,
			fmt.Sprintf("%s.1,82,3", hhmm),
			fmt.Sprintf("%s.2,81,3", hhmm),
		)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
