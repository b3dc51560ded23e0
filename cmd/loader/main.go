// Command loader runs sync kinds as a batch, from flags or a YAML plan, and
// exits non-zero when a run aborts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/epeers/marketsync/config"
	"github.com/epeers/marketsync/internal/alphavantage"
	"github.com/epeers/marketsync/internal/database"
	"github.com/epeers/marketsync/internal/metrics"
	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	var opts options
	planPath := flag.String("plan", "", "path to a YAML plan; overrides -kind")
	flag.StringVar(&opts.kind, "kind", "all", "symbols, digital_symbols, overviews, intraday, daily, news, top_movers or all")
	flag.StringVar(&opts.keywords, "keywords", "", "comma-separated search keywords for -kind symbols")
	flag.StringVar(&opts.source, "source", "", `symbol source; "listing" uses the provider's active listing`)
	flag.StringVar(&opts.file, "file", "", "exchange listing file for -kind symbols or digital_symbols")
	flag.StringVar(&opts.exchange, "exchange", "", "listing file format: NASDAQ, NYSE or DIGITAL")
	flag.StringVar(&opts.symbols, "symbols", "", "comma-separated symbols to restrict data syncs to")
	flag.StringVar(&opts.region, "region", "", "region to restrict data syncs to")
	flag.IntVar(&opts.limit, "limit", 0, "maximum symbols per data sync (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	var steps []services.PlanStep
	if *planPath != "" {
		steps, err = loadPlan(*planPath)
	} else {
		steps, err = buildSteps(opts, cfg)
	}
	if err != nil {
		log.Fatalf("Invalid plan: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	svc := services.NewSyncService(
		alphavantage.NewClient(cfg.AVKey),
		services.NewStores(db.Pool),
		metrics.New(prometheus.NewRegistry()),
		cfg.GateOptions()...,
	)

	results, runErr := svc.RunPlan(ctx, steps)
	printSummary(os.Stdout, results)
	if runErr != nil {
		log.Errorf("Load stopped: %v", runErr)
		db.Close()
		os.Exit(1)
	}
}

func printSummary(out io.Writer, results []*models.SyncResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSTATE\tITEMS\tFETCHED\tNO_DATA\tCREATED\tSKIPPED\tFAILED\tERRORS\tMS\tRUN")

	var total models.SyncResult
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Kind, r.State, r.Items, r.Fetched, r.NoData, r.Created, r.Skipped, r.Failed, r.ErrorCount, r.DurationMs, r.RunID)
		total.Items += r.Items
		total.Fetched += r.Fetched
		total.NoData += r.NoData
		total.Created += r.Created
		total.Skipped += r.Skipped
		total.Failed += r.Failed
		total.ErrorCount += r.ErrorCount
		total.DurationMs += r.DurationMs
	}
	fmt.Fprintf(w, "total\t\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
		total.Items, total.Fetched, total.NoData, total.Created, total.Skipped, total.Failed, total.ErrorCount, total.DurationMs)
	w.Flush()
}
