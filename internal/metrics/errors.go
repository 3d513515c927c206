// Package metrics wraps the shared telemetry system with typed recorders.
// Every recorder is a no-op until InitMetrics has run, so CLI commands and
// tests never need a telemetry system.
package metrics

import (
	"strconv"

	"github.com/roamsim/roamsim/internal/observability"
)

const (
	ErrorsTotalName      = "errors_total"
	PanicsTotalName      = "panics_total"
	ErrorsByEndpointName = "errors_by_endpoint"
)

func emitCounter(name string, labels map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(name, 1, labels)
}

// RecordError counts an error response by envelope code and HTTP status.
func RecordError(errorCode string, httpStatus int) {
	emitCounter(ErrorsTotalName, map[string]string{
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
	})
}

// RecordPanic counts a recovered panic.
func RecordPanic() {
	emitCounter(PanicsTotalName, nil)
}

// RecordErrorByEndpoint counts an error response per endpoint pattern.
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	emitCounter(ErrorsByEndpointName, map[string]string{
		"endpoint":   endpoint,
		"error_code": errorCode,
	})
}
