package config

// Engine binds the referral engine to its program identities. Keys are
// base58 encoded.
type Engine struct {
	ProgramID        string `toml:"ProgramID"`
	CustodyProgramID string `toml:"CustodyProgramID"`
	DelegateSeed     string `toml:"DelegateSeed"`
}

// Log controls structured log output. An empty File logs to stdout.
type Log struct {
	Level      string `toml:"Level"`
	Env        string `toml:"Env"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Telemetry configures OTLP trace export. Tracing is disabled while Endpoint
// is empty. Headers uses the comma separated key=value form of
// OTEL_EXPORTER_OTLP_HEADERS.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	SampleRatio float64 `toml:"SampleRatio"`
}
