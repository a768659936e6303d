package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pior/mpdcmd"
	"github.com/pior/mpdcmd/metrics"
	"github.com/pior/mpdcmd/wire"
)

type benchResult struct {
	Duration     time.Duration
	TotalOps     int64
	Acks         int64
	Failures     int64
	AvgLatency   time.Duration
	OpsPerSecond float64
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		duration      time.Duration
		concurrency   int
		zone          string
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "bench [line...]",
		Short: "Send command lines in a loop and report throughput",
		Long: "Each worker sends the given lines in order, repeatedly, until the duration\n" +
			"elapses. Lines default to status and ping.",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := args
			if len(lines) == 0 {
				lines = []string{"status", "ping"}
			}
			for _, line := range lines {
				if _, err := mpdcmd.Parse(line); err != nil {
					return err
				}
			}
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be positive, got %d", concurrency)
			}

			cfg := a.config.Client
			if zone == "" {
				zone = cfg.Zone
			}

			client, err := mpdcmd.NewClient(cfg.Servers, cfg.ClientConfig(a.logger))
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Servers: %v\nDuration: %v\nConcurrency: %d\n\n", cfg.Servers, duration, concurrency)

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			if metricsListen != "" {
				exporter, err := metrics.NewExporter(metrics.NewClientCollector(client))
				if err != nil {
					return err
				}
				a.logger.Info("serving metrics", "addr", metricsListen)
				g.Go(func() error {
					return exporter.ListenAndServe(ctx, metricsListen)
				})
			}

			var result benchResult
			g.Go(func() error {
				result = runBench(ctx, client, zone, lines, concurrency)
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			printBenchResult(out, result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to run")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of concurrent workers")
	cmd.Flags().StringVar(&zone, "zone", "", "zone used to pick the server (overrides client.zone)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "address of a /metrics endpoint for the client while the bench runs")
	return cmd
}

func runBench(ctx context.Context, client *mpdcmd.Client, zone string, lines []string, concurrency int) benchResult {
	var totalOps, acks, failures, totalLatency atomic.Int64

	start := time.Now()
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ctx.Err() == nil; i++ {
				opStart := time.Now()
				_, err := client.Exec(ctx, zone, lines[i%len(lines)])
				if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
					return
				}

				totalOps.Add(1)
				totalLatency.Add(int64(time.Since(opStart)))

				var ack *wire.AckError
				switch {
				case errors.As(err, &ack):
					acks.Add(1)
				case err != nil:
					failures.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	result := benchResult{
		Duration: time.Since(start),
		TotalOps: totalOps.Load(),
		Acks:     acks.Load(),
		Failures: failures.Load(),
	}
	if result.TotalOps > 0 {
		result.AvgLatency = time.Duration(totalLatency.Load() / result.TotalOps)
		result.OpsPerSecond = float64(result.TotalOps) / result.Duration.Seconds()
	}
	return result
}

func printBenchResult(w io.Writer, r benchResult) {
	fmt.Fprintf(w, "Duration:    %v\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Total ops:   %d\n", r.TotalOps)
	fmt.Fprintf(w, "Acks:        %d\n", r.Acks)
	fmt.Fprintf(w, "Failures:    %d\n", r.Failures)
	fmt.Fprintf(w, "Avg latency: %v\n", r.AvgLatency)
	fmt.Fprintf(w, "Ops/sec:     %.0f\n", r.OpsPerSecond)
}
