package log

// With returns a Logger that prepends fields to every message.
func With(l Logger, fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	if fl, ok := l.(*fieldLogger); ok {
		merged := make([]Field, 0, len(fl.fields)+len(fields))
		merged = append(merged, fl.fields...)
		merged = append(merged, fields...)
		return &fieldLogger{next: fl.next, fields: merged}
	}
	return &fieldLogger{next: l, fields: fields}
}

type fieldLogger struct {
	next   Logger
	fields []Field
}

func (f *fieldLogger) join(fields []Field) []Field {
	out := make([]Field, 0, len(f.fields)+len(fields))
	out = append(out, f.fields...)
	return append(out, fields...)
}

func (f *fieldLogger) Debug(msg string, fields ...Field) { f.next.Debug(msg, f.join(fields)...) }
func (f *fieldLogger) Info(msg string, fields ...Field)  { f.next.Info(msg, f.join(fields)...) }
func (f *fieldLogger) Warn(msg string, fields ...Field)  { f.next.Warn(msg, f.join(fields)...) }
func (f *fieldLogger) Error(msg string, fields ...Field) { f.next.Error(msg, f.join(fields)...) }
