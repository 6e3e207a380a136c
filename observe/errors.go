package observe

import (
	"errors"

	"github.com/jonwraymond/ems/observe/exporters"
)

// Config errors.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")

	// ErrEndpointNotConfigured is returned for the otlp exporters when no
	// OTEL_EXPORTER_OTLP_*ENDPOINT variable is set.
	ErrEndpointNotConfigured = exporters.ErrEndpointNotConfigured
)

// Runtime errors.
var (
	ErrNilObserver          = errors.New("observe: observer is nil")
	ErrMissingOperationName = errors.New("observe: operation name is required")
)
