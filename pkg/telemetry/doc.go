// Package telemetry wires OpenTelemetry tracing and meters for statvar.
//
// It centralises trace provider setup and wraps the variation enumerator so
// every enumeration or count is traced and counted with its budget, ceiling,
// and outcome.
package telemetry
