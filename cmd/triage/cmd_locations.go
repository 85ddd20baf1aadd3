package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/flight-triage/internal/config"
)

var locationsFlags struct {
	catalog string
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List the site catalog",
	RunE:  runLocations,
}

func init() {
	locationsCmd.Flags().StringVar(&locationsFlags.catalog, "catalog", "", "Site catalog file (default embedded, or CATALOG_PATH)")
}

func runLocations(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if locationsFlags.catalog != "" {
		cfg.CatalogPath = locationsFlags.catalog
	}
	sites, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLAT\tLON\tELEV\tPEAKS\tDRIVE")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.0fm\t%.0fm\t%.1fh\n",
			s.ID, s.Name, s.Lat, s.Lon, s.Elevation, s.PeaksElevation, s.DriveHours)
	}
	return w.Flush()
}
