// Package metrics exposes the watch as Prometheus metrics.
//
// Collectors live on a private registry. The poller and the supervisor report
// through observer callbacks, render events update the gauges and the render
// hub's drop counter is read on scrape.
package metrics
