package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `toml:"enabled"`
	UseConsoleWriter bool
}

// Rolling describes one lumberjack rotated file.
type Rolling struct {
	Name       string `toml:"name"`
	MaxSize    int    `toml:"maxSize"` // megabytes
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"` // days
}

// LogFile implements a file based logger.
type LogFile struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	Access Rolling `toml:"access"`
	Error  Rolling `toml:"error"`
	Info   Rolling `toml:"info"`
	Trace  Rolling `toml:"trace"`
	Warn   Rolling `toml:"warn"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string // trace, debug, info, warn, error.

	// EnableAccessLogToConsole writes the http access log to stdout.
	// Does not overrule Console.Enabled.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	// SlowQueryMS marks gorm queries slower than this as warnings. 0 disables it.
	SlowQueryMS int

	AppName     string
	ServiceName string

	Console Console
	File    LogFile `toml:"file"`
}
