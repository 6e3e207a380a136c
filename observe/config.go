package observe

import "fmt"

// Config selects the telemetry the client emits.
type Config struct {
	ServiceName string        `yaml:"service_name" toml:"service_name"`
	Version     string        `yaml:"version" toml:"version"`
	Tracing     TracingConfig `yaml:"tracing" toml:"tracing"`
	Metrics     MetricsConfig `yaml:"metrics" toml:"metrics"`
	Logging     LoggingConfig `yaml:"logging" toml:"logging"`
}

// TracingConfig configures operation spans.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Exporter is one of ValidTracingExporters.
	Exporter string `yaml:"exporter" toml:"exporter"`
	// SamplePct is the sampled fraction of traces, in [0, 1].
	SamplePct float64 `yaml:"sample_pct" toml:"sample_pct"`
}

// MetricsConfig configures operation counters and histograms.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Exporter is one of ValidMetricsExporters.
	Exporter string `yaml:"exporter" toml:"exporter"`
}

// LoggingConfig configures the JSON logger.
type LoggingConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Level is one of ValidLogLevels.
	Level string `yaml:"level" toml:"level"`
}

// Accepted names. The empty string selects the default.
var (
	ValidTracingExporters = []string{"otlp", "stdout", "none", ""}
	ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}
	ValidLogLevels        = []string{"debug", "info", "warn", "error", ""}
)

func oneOf(v string, names []string) bool {
	for _, n := range names {
		if v == n {
			return true
		}
	}
	return false
}

// Validate reports the first invalid setting. Settings of a disabled
// subsystem are not checked.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if t := c.Tracing; t.Enabled {
		if !oneOf(t.Exporter, ValidTracingExporters) {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, t.Exporter)
		}
		if t.SamplePct < 0 || t.SamplePct > 1 {
			return fmt.Errorf("%w: %g", ErrInvalidSamplePct, t.SamplePct)
		}
	}
	if m := c.Metrics; m.Enabled && !oneOf(m.Exporter, ValidMetricsExporters) {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, m.Exporter)
	}
	if l := c.Logging; l.Enabled && !oneOf(l.Level, ValidLogLevels) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return nil
}
