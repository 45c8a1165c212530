package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

type palette struct {
	time      string
	component string
	id        string
	number    string
	fg        string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

var themes = map[string]palette{
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;208m",
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;108m",
		fg:        "\x1b[38;5;223m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;214m",
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;175m",
		fg:        "\x1b[38;5;223m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
	"plain": {},
}

var currentTheme = "everforest"

// SetTheme configures the color scheme for console output.
// Unknown names are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

var bufferPool = buffer.NewPool()

// minimalEncoder is a compact console encoder.
// Format: "13:04:35  s.day  Intersection flushed  ISC1  2022/11/05  rows=42"
type minimalEncoder struct {
	zapcore.Encoder
	context []zapcore.Field
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	ctx := make([]zapcore.Field, len(enc.context))
	copy(ctx, enc.context)
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		context: ctx,
	}
}

// AddString and friends are routed through the embedded encoder by zap for
// With() fields; we capture them so they show up in console output too.
func (enc *minimalEncoder) AddString(key, value string) {
	enc.context = append(enc.context, zap.String(key, value))
}

func (enc *minimalEncoder) AddInt64(key string, value int64) {
	enc.context = append(enc.context, zap.Int64(key, value))
}

func (enc *minimalEncoder) AddInt(key string, value int) {
	enc.context = append(enc.context, zap.Int(key, value))
}

func (enc *minimalEncoder) AddBool(key string, value bool) {
	enc.context = append(enc.context, zap.Bool(key, value))
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := bufferPool.Get()

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(reset(c.time))

	// Level: only shown for WARN and above
	if ent.Level >= zapcore.WarnLevel {
		final.AppendString("  ")
		final.AppendString(levelString(ent.Level, c))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(c.component)
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(reset(c.component))
	}

	all := make([]zapcore.Field, 0, len(enc.context)+len(fields))
	all = append(all, enc.context...)
	all = append(all, fields...)

	final.AppendString("  ")
	if symbol := symbolOf(all); symbol != "" {
		final.AppendString(c.component)
		final.AppendString(symbol)
		final.AppendString(reset(c.component))
		final.AppendString(" ")
	}
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(reset(c.fg))

	if rendered := renderFields(all, c); rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

func reset(color string) string {
	if color == "" {
		return ""
	}
	return colorReset
}

func levelString(level zapcore.Level, c palette) string {
	switch level {
	case zapcore.WarnLevel:
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	default:
		return colorBold + c.errBg + c.err + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: signal.day -> s.day
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// symbolOf returns the last symbol field, so a nested With wins.
func symbolOf(fields []zapcore.Field) string {
	symbol := ""
	for _, field := range fields {
		if field.Key == FieldSymbol && field.Type == zapcore.StringType {
			symbol = field.String
		}
	}
	return symbol
}

// fieldValue renders a single field's value using zap's own map encoder so
// every field type is supported.
func fieldValue(field zapcore.Field) (string, bool) {
	if field.Type == zapcore.SkipType {
		return "", false
	}
	m := zapcore.NewMapObjectEncoder()
	field.AddTo(m)
	v, ok := m.Fields[field.Key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// renderFields never drops a field. Hierarchy identifiers are shown bare and
// highlighted; everything else is key=value.
func renderFields(fields []zapcore.Field, c palette) string {
	var out []string
	for _, field := range fields {
		val, ok := fieldValue(field)
		if !ok {
			continue
		}
		switch field.Key {
		case FieldSymbol:
			continue
		case FieldIntersection, FieldRunID:
			out = append(out, c.id+val+reset(c.id))
		case FieldDurationMS:
			out = append(out, c.number+val+reset(c.number)+"ms")
		default:
			out = append(out, field.Key+"="+val)
		}
	}
	return strings.Join(out, "  ")
}
