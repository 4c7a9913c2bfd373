package logger

// Config configures a Logger.
type Config struct {
	// Level is the minimum level: debug, info, warn, error or fatal.
	Level string
	// Format is json (the default) or console.
	Format string
	// Development disables sampling and enables DPanic panics.
	Development bool
	// OutputPaths are zap sink URLs or file paths; stdout by default.
	OutputPaths []string
}

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format != FormatConsole {
		c.Format = FormatJSON
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
