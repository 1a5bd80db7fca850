// Command loadgen drives the transaction engine directly against
// PostgreSQL, without the HTTP gateway, and prints a run summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tpcbench/tpcbench/internal/app"
	"github.com/tpcbench/tpcbench/internal/bench"
	"github.com/tpcbench/tpcbench/internal/platform/db"
	"github.com/tpcbench/tpcbench/internal/tpcc"
)

func main() {
	var (
		dsn         = flag.String("dsn", "", "PostgreSQL DSN (defaults to PG_DSN)")
		mix         = flag.String("mix", "NEW_ORDER,PAYMENT,ORDER_STATUS,DELIVERY,STOCK_LEVEL", "comma separated transaction mix")
		concurrency = flag.Int("concurrency", 10, "invocations per round")
		duration    = flag.Duration("duration", 30*time.Second, "wall-clock run duration")
		pause       = flag.Duration("pause", 100*time.Millisecond, "pause between rounds")
		verbose     = flag.Bool("verbose", false, "log every round")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *dsn == "" {
		*dsn = cfg.PGDSN
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	pool, err := db.New(ctx, *dsn, cfg.PGMaxConns)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect postgres:", err)
		os.Exit(1)
	}
	defer pool.Close()

	service := tpcc.NewService(tpcc.NewRepository(pool), logger)
	paramSource, err := bench.NewDefaultParamSource(ctx, service)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed workload parameters:", err)
		os.Exit(1)
	}
	runner := bench.NewRunner(bench.NewEngineInvoker(service, paramSource, nil), logger, *pause)

	report, err := runner.Run(ctx, bench.RunSpec{
		Mix:         splitMix(*mix),
		Concurrency: *concurrency,
		Duration:    *duration,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		os.Exit(1)
	}

	printSummary(report)
}

func splitMix(raw string) []string {
	parts := strings.Split(raw, ",")
	mix := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			mix = append(mix, strings.ToUpper(p))
		}
	}
	return mix
}

func printSummary(report *bench.Report) {
	p := message.NewPrinter(language.English)
	s := report.Summary

	p.Printf("transactions: %d (%d ok, %d failed)\n", s.Total, s.Successful, s.Failed)
	p.Printf("duration:     %.2fs\n", s.Duration)
	p.Printf("throughput:   %.2f tx/s\n", s.Throughput)
	p.Printf("error rate:   %.2f%%\n", s.ErrorRate)
	p.Printf("avg latency:  %.3f ms\n", s.AvgLatencyMS)

	perKind := map[string]int{}
	for _, o := range report.Results {
		perKind[o.Kind]++
	}
	kinds := make([]string, 0, len(perKind))
	for k := range perKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		p.Printf("  %-14s %d\n", k, perKind[k])
	}
}
