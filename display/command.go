package display

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// JSONEnv forces JSON output when set to a true value, for scripted use.
const JSONEnv = "QNTX_SIGNAL_JSON"

// ShouldOutputJSON determines if a command should output JSON based on flags
// and the environment
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return envJSON()
	}

	// An explicit --json, local or global, wins either way
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("json")
		return v
	}
	if f := cmd.Root().PersistentFlags().Lookup("json"); f != nil && f.Changed {
		v, _ := cmd.Root().PersistentFlags().GetBool("json")
		return v
	}

	return envJSON()
}

func envJSON() bool {
	switch os.Getenv(JSONEnv) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
