// Package logging provides the Zap building blocks for beacon's log stage.
//
// It contributes level parsing (including a custom trace level below debug),
// encoder construction, and core assembly for stdout and OpenTelemetry
// outputs. The telemetry package composes these into the installed
// dispatcher; hosts normally do not use this package directly.
package logging
