// Package metrics provides scan metrics for mdlinkcheck.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	scanner := scan.New(parser, reporter, opts).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// One-shot runs export the registry with WriteTextfile for the node_exporter textfile
// collector; watch mode can serve it over HTTP with HTTPHandler.
package metrics
