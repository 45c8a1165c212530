// Package sym defines the glyphs qntx-signal prints in front of commands
// and lifecycle log lines. They are stable across CLI help, logs and docs.
package sym

// Command glyphs
const (
	AM = "≡" // am: configuration
	IX = "⨳" // ix: ingest (run)
	DB = "⊔" // db: database/storage layer
)

// Pool lifecycle glyphs
const (
	Pulse      = "꩜" // worker pool
	PulseOpen  = "✿" // pool starting
	PulseClose = "❀" // pool finished
)

// SymbolToCommand maps glyph strings to their CLI command.
var SymbolToCommand = map[string]string{
	AM: "am",
	IX: "run",
	DB: "db",
}

// CommandToSymbol maps CLI commands to their glyph.
var CommandToSymbol = map[string]string{
	"am":  AM,
	"run": IX,
	"db":  DB,
}

// CommandDescriptions provides one-line explanations for help output.
var CommandDescriptions = map[string]string{
	"am":  "Configuration: settings merged from files, environment and flags",
	"run": "Ingest: decode one month of controller logs",
	"db":  "Database: schema and run ledger",
}

// Short returns "<glyph> <description>" for command, suitable for cobra's
// Short field. Unknown commands return the command name.
func Short(command string) string {
	g, ok := CommandToSymbol[command]
	if !ok {
		return command
	}
	return g + " " + CommandDescriptions[command]
}
