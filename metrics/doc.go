// Package metrics exports server and client statistics to Prometheus.
//
// Collectors read a stats snapshot on every scrape, so they hold no state of
// their own:
//
//	exporter, err := metrics.NewExporter(metrics.NewServerCollector(srv))
//	if err != nil {
//		return err
//	}
//	go exporter.ListenAndServe(ctx, ":9100")
package metrics
