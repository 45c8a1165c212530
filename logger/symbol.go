package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/qntx-signal/sym"
)

// FieldSymbol carries the subsystem glyph as a structured field so the
// message text stays clean and logs stay queryable by symbol.
const FieldSymbol = "symbol"

// WithSymbol returns the global logger with symbol attached.
//
//	logger.WithSymbol(sym.IX).Infow("Day finished", "day", day)
func WithSymbol(symbol string) *zap.SugaredLogger {
	if Logger == nil {
		return zap.NewNop().Sugar().With(FieldSymbol, symbol)
	}
	return Logger.With(FieldSymbol, symbol)
}

// Instance wrappers, for components that were handed a logger.

// AddPulseSymbol wraps a logger with the Pulse symbol (꩜)
func AddPulseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Pulse)
}

// AddPulseOpenSymbol wraps a logger with the PulseOpen symbol (✿)
func AddPulseOpenSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.PulseOpen)
}

// AddPulseCloseSymbol wraps a logger with the PulseClose symbol (❀)
func AddPulseCloseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.PulseClose)
}

// AddIXSymbol wraps a logger with the IX symbol (⨳)
func AddIXSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.IX)
}

// AddDBSymbol wraps a logger with the DB symbol (⊔)
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}
