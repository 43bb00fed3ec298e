// Package metrics records build and stage metrics.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs
// nil checks when metrics are off. PrometheusRecorder registers its
// collectors on a registry that the CLI writes to a node-exporter textfile
// after each build:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run the build with rec ...
//	err := metrics.WriteTextfile(reg, "/var/lib/node_exporter/bookbuilder.prom")
package metrics
