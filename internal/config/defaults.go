package config

// Default values for configuration options. These are "layer 0" of the
// override chain.
const (
	defaultLogLevel  = "info"
	defaultLogFormat = "auto"
	defaultTimeout   = "60s"
	defaultUserAgent = "ghive"
)

// DefaultConfig returns a Config populated with all default values.
// It is the starting point for TOML decoding, so unset fields retain their
// defaults. State paths are filled in by Resolve once the data directory
// is known.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Network: NetworkConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
	}
}
