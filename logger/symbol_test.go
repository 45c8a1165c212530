package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/qntx-signal/sym"
)

func TestAddSymbolWrappers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core).Sugar()

	AddIXSymbol(base).Infow("day finished")
	AddDBSymbol(base).Infow("migrated")
	AddPulseOpenSymbol(base).Infow("pool starting")
	AddPulseCloseSymbol(base).Infow("pool finished")
	AddPulseSymbol(base).Debugw("job started")

	entries := logs.AllUntimed()
	require.Len(t, entries, 5)
	want := []string{sym.IX, sym.DB, sym.PulseOpen, sym.PulseClose, sym.Pulse}
	for i, e := range entries {
		assert.Equal(t, want[i], e.ContextMap()[FieldSymbol], e.Message)
	}
}

func TestWithSymbolUsesGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := Logger
	Logger = zap.New(core).Sugar()
	t.Cleanup(func() { Logger = prev })

	WithSymbol(sym.DB).Infow("database opened")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, sym.DB, logs.All()[0].ContextMap()[FieldSymbol])
}
