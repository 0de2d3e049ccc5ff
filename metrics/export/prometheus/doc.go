// Package prometheus renders pwhash service metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [pwhash.Service] and exposes an
// [http.Handler]. Counter names are pwhash_*_total; the three latency
// histograms are pwhash_{hash,verify,derive}_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate service state.
package prometheus
