package log

// noopLogger discards everything. It backs the package-level Logger before
// any entry point calls SetLogger, so library code can log unconditionally
// without a nil check.
type noopLogger struct{}

// Noop returns a Logger that discards all output, for callers (tests,
// short-lived CLI subcommands) that want logging off explicitly rather than
// relying on the unconfigured default.
func Noop() Logger {
	return &noopLogger{}
}

func (*noopLogger) Debug(string, ...Field) {}
func (*noopLogger) Info(string, ...Field)  {}
func (*noopLogger) Warn(string, ...Field)  {}
func (*noopLogger) Error(string, ...Field) {}
