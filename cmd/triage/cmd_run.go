package main

import (
	"fmt"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/flight-triage/internal/config"
	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
	"github.com/couchcryptid/flight-triage/internal/report"
)

var runFlags struct {
	date      string
	locations []string
	catalog   string
	out       string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one assessment cycle and print the ranking",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.date, "date", "", "Target date (YYYY-MM-DD, default next Saturday)")
	f.StringSliceVar(&runFlags.locations, "locations", nil, "Only assess these site ids (comma-separated)")
	f.StringVar(&runFlags.catalog, "catalog", "", "Site catalog file (default embedded, or CATALOG_PATH)")
	f.StringVar(&runFlags.out, "out", "", "Report output directory (default OUTPUT_DIR)")
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runFlags.catalog != "" {
		cfg.CatalogPath = runFlags.catalog
	}
	if runFlags.out != "" {
		cfg.OutputDir = runFlags.out
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	sites, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	sites, err = filterSites(sites, runFlags.locations)
	if err != nil {
		return err
	}

	date := runFlags.date
	if date == "" {
		date = domain.NextSaturday(cfg.Location())
	} else if !dateRe.MatchString(date) {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}

	p, publisher := buildPipeline(cfg, sites, logger, metrics)
	if publisher != nil {
		defer publisher.Close() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	doc, err := p.Run(ctx, date)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Console(doc))
	return nil
}
