// Package metrics exposes Prometheus instrumentation for the job queue and
// webhook pipelines.
//
// Counters and histograms are package-level vectors recorded through the
// Record* helpers at the call sites that own the events (enqueue, job
// completion, delivery attempts, inbound receipts). Queue depth and worker
// liveness are scraped live from storage by QueueCollector.
//
//	reg := prometheus.NewRegistry()
//	metrics.MustRegister(reg)
//	reg.MustRegister(metrics.NewQueueCollector(storage))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
