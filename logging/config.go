package logging

type Config struct {
	EnabledSinks    []string
	BufferSize      int
	MinimumSeverity Severity
	Fields          map[string]any
	JSONL           JSONLConfig
}

// JSONLConfig points the compressed event-log sink at its output directory.
type JSONLConfig struct {
	Dir    string
	Prefix string
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:    []string{"console"},
		BufferSize:      512,
		MinimumSeverity: SeverityInfo,
		JSONL: JSONLConfig{
			Dir:    "logs",
			Prefix: "events",
		},
	}
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}
