package display

import (
	"encoding/json"
	"os"
)

// MarshalJSON marshals JSON pretty-printed for terminals and compact when
// stdout is a pipe or file, so one result stays on one line for tools.
func MarshalJSON(v interface{}) ([]byte, error) {
	if isTerminal(os.Stdout) {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
