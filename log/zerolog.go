package log

import "github.com/rs/zerolog"

// zerologAdapter satisfies Logger by forwarding to an underlying
// zerolog.Logger, translating each Field into the matching typed zerolog
// setter instead of falling through to reflection-based Interface() for
// every call.
type zerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps logger as a Logger.
func NewZerologAdapter(logger zerolog.Logger) Logger {
	return &zerologAdapter{logger: logger}
}

func (l *zerologAdapter) Debug(msg string, fields ...Field) { l.log(zerolog.DebugLevel, msg, fields) }
func (l *zerologAdapter) Info(msg string, fields ...Field)  { l.log(zerolog.InfoLevel, msg, fields) }
func (l *zerologAdapter) Warn(msg string, fields ...Field)  { l.log(zerolog.WarnLevel, msg, fields) }
func (l *zerologAdapter) Error(msg string, fields ...Field) { l.log(zerolog.ErrorLevel, msg, fields) }

func (l *zerologAdapter) log(level zerolog.Level, msg string, fields []Field) {
	event := l.logger.WithLevel(level)
	for _, f := range fields {
		event = withField(event, f)
	}
	event.Msg(msg)
}

// withField attaches f to event using the typed zerolog setter for f's
// concrete type, falling back to Interface (reflection-based encoding)
// for anything not listed.
func withField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case int8:
		return event.Int8(f.Key, v)
	case int16:
		return event.Int16(f.Key, v)
	case int32:
		return event.Int32(f.Key, v)
	case int64:
		return event.Int64(f.Key, v)
	case uint:
		return event.Uint(f.Key, v)
	case uint8:
		return event.Uint8(f.Key, v)
	case uint16:
		return event.Uint16(f.Key, v)
	case uint32:
		return event.Uint32(f.Key, v)
	case uint64:
		return event.Uint64(f.Key, v)
	case float32:
		return event.Float32(f.Key, v)
	case float64:
		return event.Float64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case error:
		return event.AnErr(f.Key, v)
	case []byte:
		return event.Bytes(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}
