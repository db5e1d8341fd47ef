package telemetry

// resetInstalled clears the process-wide installation flag. Tests that build
// pipelines call this between compositions; production code never should,
// because the process-wide sink is install-once by design.
func resetInstalled() {
	installed.Store(false)
}
