/*
Package metrics provides Prometheus metrics collection and exposition for
ToriDB.

Every metric is a package-level prometheus collector registered in init(),
mirroring the teacher pattern of one var block per concern plus a single
registration pass. Handler returns the standard promhttp handler, meant to be
mounted on the server's metrics listener (see cmd/toridb-server).

Use Timer for latency histograms:

	timer := metrics.NewTimer()
	// ... execute a command ...
	timer.ObserveDurationVec(metrics.CommandDuration, commandName)
*/
package metrics
